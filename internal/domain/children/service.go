package children

import (
	"context"
	"errors"
	"strings"
	"time"

	"immunization-scheduler/internal/domain/immunization"
	"immunization-scheduler/internal/domain/protocol"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("child not found")
)

// Scheduler genera el calendario inicial (immunization.Service).
type Scheduler interface {
	GenerateSchedule(ctx context.Context, childID string, birthDate time.Time) (immunization.GenerateResult, error)
}

type Service struct {
	repo      Repository
	scheduler Scheduler
	now       func() time.Time
}

func NewService(repo Repository, scheduler Scheduler) *Service {
	return &Service{
		repo:      repo,
		scheduler: scheduler,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

type RegisterInput struct {
	Name          string
	Sex           Sex
	BirthDate     time.Time
	GuardianName  string
	GuardianPhone string
	Notes         string
}

type RegisterResult struct {
	Child    Child
	Schedule immunization.GenerateResult
}

// Register da de alta al niño y genera su calendario completo.
// Si el alta quedó hecha pero la generación falló, Child viene poblado junto con el error
// (el calendario puede reintentarse con POST /children/{id}/schedule).
func (s *Service) Register(ctx context.Context, in RegisterInput) (RegisterResult, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return RegisterResult{}, ErrInvalidInput
	}
	if in.BirthDate.IsZero() {
		return RegisterResult{}, ErrInvalidInput
	}

	now := s.now()
	birth := protocol.DateOf(in.BirthDate)
	if birth.After(protocol.DateOf(now)) {
		return RegisterResult{}, ErrInvalidInput
	}

	sex := in.Sex
	if sex == "" {
		sex = SexUnknown
	}
	if !sex.Valid() {
		return RegisterResult{}, ErrInvalidInput
	}

	c := Child{
		ID:            uuid.NewString(),
		Name:          name,
		Sex:           sex,
		BirthDate:     birth,
		GuardianName:  strings.TrimSpace(in.GuardianName),
		GuardianPhone: strings.TrimSpace(in.GuardianPhone),
		Notes:         strings.TrimSpace(in.Notes),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return RegisterResult{}, err
	}

	res := RegisterResult{Child: c}
	if s.scheduler == nil {
		return res, nil
	}

	sched, err := s.scheduler.GenerateSchedule(ctx, c.ID, c.BirthDate)
	res.Schedule = sched
	return res, err
}

func (s *Service) GetByID(ctx context.Context, id string) (Child, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Child{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Child, error) {
	return s.repo.List(ctx)
}
