package calendar

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Store — LRU-кэш контроллеров календаря по идентификатору UI-сессии.
// Обёртка над hashicorp/golang-lru/v2/expirable. Контроллер, не
// запрошенный дольше ttl, вытесняется и закрывается.
type Store struct {
	mu      sync.Mutex
	cache   *expirable.LRU[string, *Controller]
	factory func() *Controller
}

// NewStore создаёт кэш контроллеров.
// maxSize — максимальное число контроллеров, ttl — время простоя.
// factory вызывается при промахе.
func NewStore(maxSize int, ttl time.Duration, factory func() *Controller) *Store {
	onEvict := func(_ string, c *Controller) {
		c.Close()
		storeControllers.Dec()
	}
	return &Store{
		cache:   expirable.NewLRU[string, *Controller](maxSize, onEvict, ttl),
		factory: factory,
	}
}

// Get возвращает контроллер сессии key, создавая его при отсутствии.
// Обращение продлевает время жизни записи.
func (s *Store) Get(key string) *Controller {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.cache.Get(key); ok {
		s.cache.Add(key, c)
		return c
	}
	c := s.factory()
	s.cache.Add(key, c)
	storeControllers.Inc()
	return c
}

// Peek возвращает контроллер без создания и продления.
func (s *Store) Peek(key string) (*Controller, bool) {
	return s.cache.Peek(key)
}

// Remove удаляет контроллер сессии (выход пользователя).
func (s *Store) Remove(key string) {
	s.cache.Remove(key)
}

// Len возвращает число контроллеров в кэше.
func (s *Store) Len() int {
	return s.cache.Len()
}
