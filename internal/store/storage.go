package store

import (
	"fmt"
	"io"
	"math/rand"
	"sort"
	"sync"
	"time"

	"oblik/internal/entity"
	"oblik/internal/patch"

	"github.com/oklog/ulid/v2"
)

// Storage — реестр схем и in-memory хранилище записей.
// Реализует entity.Source: экземпляры разрешают свои ссылки через него.
type Storage struct {
	mu      sync.RWMutex
	Schemas map[string]*entity.Schema               // FQN ("module.Name") -> схема
	Data    map[string]map[string]*entity.Instance // FQN -> id -> запись
	entropy io.Reader

	// rnd используется под RLock (конкурентные читатели), поэтому
	// защищён собственным мьютексом. entropy трогается только под mu.Lock.
	rndMu sync.Mutex
	rnd   *rand.Rand
}

// NewStorage регистрирует схемы и готов к работе.
func NewStorage(schemas map[string]*entity.Schema) *Storage {
	src := rand.New(rand.NewSource(time.Now().UnixNano()))
	s := &Storage{
		Schemas: make(map[string]*entity.Schema, len(schemas)),
		Data:    make(map[string]map[string]*entity.Instance),
		entropy: ulid.Monotonic(src, 0),
		rnd:     src,
	}
	for fqn, schema := range schemas {
		s.Schemas[fqn] = schema
	}
	return s
}

func (s *Storage) newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

// NewInstance создаёт запись сущности и кладёт её в хранилище.
func (s *Storage) NewInstance(fqn string, data map[string]any) (*entity.Instance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	schema, ok := s.Schemas[fqn]
	if !ok {
		return nil, fmt.Errorf("store: unknown entity %q", fqn)
	}
	inst := entity.NewInstance(s.newID(), schema, data, s)
	if s.Data[fqn] == nil {
		s.Data[fqn] = make(map[string]*entity.Instance)
	}
	s.Data[fqn][inst.ID] = inst
	return inst, nil
}

// Restore кладёт запись с заранее известным id (восстановление из снапшота).
func (s *Storage) Restore(fqn, id string, data map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	schema, ok := s.Schemas[fqn]
	if !ok {
		return fmt.Errorf("store: unknown entity %q", fqn)
	}
	if s.Data[fqn] == nil {
		s.Data[fqn] = make(map[string]*entity.Instance)
	}
	s.Data[fqn][id] = entity.NewInstance(id, schema, data, s)
	return nil
}

func (s *Storage) Get(fqn, id string) (*entity.Instance, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inst := s.Data[fqn][id]
	if inst == nil {
		return nil, false
	}
	return inst, true
}

func (s *Storage) Exists(fqn, id string) bool {
	_, ok := s.Get(fqn, id)
	return ok
}

// List возвращает записи сущности в стабильном порядке (по id; ULID растёт
// со временем, так что это порядок создания).
func (s *Storage) List(fqn string) []*entity.Instance {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byID := s.Data[fqn]
	out := make([]*entity.Instance, 0, len(byID))
	for _, inst := range byID {
		out = append(out, inst)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// One / Many — entity.Source. target может быть коротким именем сущности.
func (s *Storage) One(target, id string) (*entity.Instance, bool) {
	fqn, ok := s.NormalizeEntityName("", target)
	if !ok {
		return nil, false
	}
	return s.Get(fqn, id)
}

func (s *Storage) Many(target string, ids []string) []*entity.Instance {
	fqn, ok := s.NormalizeEntityName("", target)
	if !ok {
		return nil
	}
	out := make([]*entity.Instance, 0, len(ids))
	for _, id := range ids {
		if inst, found := s.Get(fqn, id); found {
			out = append(out, inst)
		}
	}
	return out
}

// PatchEntity применяет спецификацию патча к схеме и подменяет её в реестре.
// Живые экземпляры перепривязываются к новой версии схемы.
func (s *Storage) PatchEntity(fqn string, spec *patch.Spec) (*entity.Schema, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	base, ok := s.Schemas[fqn]
	if !ok {
		return nil, fmt.Errorf("store: unknown entity %q", fqn)
	}
	patched, err := patch.Apply(base, spec)
	if err != nil {
		return nil, err
	}
	s.Schemas[fqn] = patched
	for _, inst := range s.Data[fqn] {
		inst.Rebind(patched)
	}
	return patched, nil
}

// ReplaceSchemas атомарно подменяет реестр схем (admin reload).
// Записи сущностей, переживших замену, перепривязываются; записи исчезнувших
// сущностей выбрасываются.
func (s *Storage) ReplaceSchemas(schemas map[string]*entity.Schema) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Schemas = schemas
	for fqn, byID := range s.Data {
		schema, ok := schemas[fqn]
		if !ok {
			delete(s.Data, fqn)
			continue
		}
		for _, inst := range byID {
			inst.Rebind(schema)
		}
	}
}

// SchemaList — FQN всех схем в стабильном порядке.
func (s *Storage) SchemaList() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.Schemas))
	for fqn := range s.Schemas {
		out = append(out, fqn)
	}
	sort.Strings(out)
	return out
}

// Schema возвращает актуальную версию схемы.
func (s *Storage) Schema(fqn string) (*entity.Schema, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	schema, ok := s.Schemas[fqn]
	return schema, ok
}
