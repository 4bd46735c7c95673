package services

import (
	"math/rand"
	"sync"
	"time"

	"repair-system/internal/entities"
)

// StaffSelector выбирает исполнителя из непустого списка подходящих сотрудников.
// Стратегия подключаемая: движок назначений не знает, как именно сделан выбор,
// поэтому равномерный случайный выбор можно заменить на взвешенный по загрузке,
// не трогая движок.
type StaffSelector interface {
	Select(candidates []entities.Staff) entities.Staff
}

type RandomStaffSelector struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewRandomStaffSelector() StaffSelector {
	return &RandomStaffSelector{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (s *RandomStaffSelector) Select(candidates []entities.Staff) entities.Staff {
	s.mu.Lock()
	defer s.mu.Unlock()
	return candidates[s.rng.Intn(len(candidates))]
}
