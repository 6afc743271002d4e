//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"config-lab/domain"
	"context"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// Transport renders session menus on the end-user device. It is invoked
// by the core and never calls back into it synchronously. The returned
// message ref is opaque to the core.
type Transport interface {
	RenderSession(ctx context.Context, key string, menu domain.MenuDescription) (string, error)
	UpdateSession(ctx context.Context, ref string, menu domain.MenuDescription) error
	AnnotateStatus(ctx context.Context, ref string, label string) error
}

// SessionRepository durably stores session state. The store treats saves
// as fire-and-forget; Flush on shutdown is the one synchronous path.
type SessionRepository interface {
	SaveSession(session domain.Session) error
	LoadSessions() ([]domain.Session, error)
	DeleteSession(key string) error
}

// Publisher hands an already-encoded exchange payload to the transport
// that links the moderation subsystems. Delivery is best-effort.
type Publisher interface {
	Publish(ctx context.Context, receiver string, payload []byte) error
}
