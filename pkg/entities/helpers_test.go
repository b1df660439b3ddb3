package entities

import (
	"context"
	"sync"

	"github.com/HumanPrinter/enkoni-sub003/pkg/specification"
)

type person struct {
	ID    int64  `csv:"Id" csvindex:"0" xml:"id,attr" json:"id"`
	Name  string `csv:"Name" csvindex:"1" xml:"name" json:"name"`
	Email string `csv:"Email" csvindex:"2" xml:"email,omitempty" json:"email,omitempty"`
}

func (p *person) RecordID() int64      { return p.ID }
func (p *person) SetRecordID(id int64) { p.ID = id }
func (p *person) Clone() *person {
	c := *p
	return &c
}

var (
	_ Repository[*person] = (*StagingRepository[*person])(nil)
	_ Repository[*person] = (*FileRepository[*person])(nil)
	_ Source[*person]     = (*MemorySource[*person])(nil)
	_ Source[*person]     = (*fileSource[*person])(nil)
	_ FileFormat[*person] = (*CSVFormat[*person])(nil)
	_ FileFormat[*person] = (*XMLFormat[*person])(nil)
	_ FileFormat[*person] = (*JSONFormat[*person])(nil)
)

func named(name string) specification.Specification[*person] {
	return specification.Predicate[*person](func(p *person) bool { return p.Name == name })
}

func names(people []*person) []string {
	out := make([]string, len(people))
	for i, p := range people {
		out[i] = p.Name
	}
	return out
}

func findAll(repo Repository[*person]) ([]*person, error) {
	return repo.FindAll(context.Background(), nil)
}

// fakeWatcher lets tests deliver change events by hand.
type fakeWatcher struct {
	events chan WatchEvent
	errors chan error
	once   sync.Once
}

func newFakeWatcher() *fakeWatcher {
	return &fakeWatcher{events: make(chan WatchEvent), errors: make(chan error)}
}

func (w *fakeWatcher) Events() <-chan WatchEvent { return w.events }
func (w *fakeWatcher) Errors() <-chan error      { return w.errors }
func (w *fakeWatcher) Close() error {
	w.once.Do(func() {
		close(w.events)
		close(w.errors)
	})
	return nil
}
