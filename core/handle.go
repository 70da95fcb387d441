package core

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// TaskID uniquely identifies one invocation of a capsule. The teacher's
// retrieved core/parallel_task_runner.go references a TaskID type and a
// GenerateTaskID() function that are never defined anywhere in the rest of
// the retrieved package snapshot; this is a concrete, collision-safe
// replacement rather than an attempt to guess the missing definition.
type TaskID uuid.UUID

// GenerateTaskID returns a fresh, random TaskID.
func GenerateTaskID() TaskID {
	return TaskID(uuid.New())
}

func (id TaskID) String() string {
	return uuid.UUID(id).String()
}

// IsZero reports whether id is the zero TaskID (never returned by
// GenerateTaskID).
func (id TaskID) IsZero() bool {
	return id == TaskID{}
}

// TaskHandle is the opaque identifier returned by RunH/RunDistH once the
// corresponding task has begun executing on its worker.
type TaskHandle struct {
	ID         TaskID
	WorkerName string
}

func (h TaskHandle) String() string {
	return fmt.Sprintf("%s@%s", h.ID, h.WorkerName)
}

// IsZero reports whether h is the zero TaskHandle (never returned by a
// successful RunH/RunDistH call).
func (h TaskHandle) IsZero() bool {
	return h == TaskHandle{}
}

// currentTaskHandleKey installs a TaskHandle into a task's context, mirroring
// the source's current_task_handle() query available from inside a running
// task. Only set for capsules created via RunH/RunDistH; GetCurrentTaskHandle
// returns the zero handle and false for a plain Run submission.
type currentTaskHandleKeyType struct{}

var currentTaskHandleKey currentTaskHandleKeyType

func withCurrentTaskHandle(ctx context.Context, h TaskHandle) context.Context {
	return context.WithValue(ctx, currentTaskHandleKey, h)
}

// GetCurrentTaskHandle retrieves the handle of the task currently executing
// in ctx, if any.
func GetCurrentTaskHandle(ctx context.Context) (TaskHandle, bool) {
	if v := ctx.Value(currentTaskHandleKey); v != nil {
		return v.(TaskHandle), true
	}
	return TaskHandle{}, false
}
