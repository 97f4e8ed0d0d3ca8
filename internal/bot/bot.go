package bot

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/ijcv/chilo-bot/internal/config"
	"github.com/ijcv/chilo-bot/internal/dialog"
	"github.com/ijcv/chilo-bot/internal/domain/audit"
	"github.com/ijcv/chilo-bot/internal/domain/students"
	"github.com/ijcv/chilo-bot/internal/infra/metrics"
	"github.com/ijcv/chilo-bot/internal/transport"
)

// Interfaces mínimas sobre los colaboradores; las implementaciones
// reales son los repos de pgx, el servicio de estudiantes y el
// validador de PIN.
type (
	StudentDirectory interface {
		Find(ctx context.Context, id string) (*students.Student, error)
	}

	GuardianRegistry interface {
		Link(ctx context.Context, guardianID, studentID string) error
		Unlink(ctx context.Context, guardianID, studentID string) (bool, error)
		StudentsOf(ctx context.Context, guardianID string) ([]string, error)
		AllGuardians(ctx context.Context) ([]string, error)
	}

	PinValidator interface {
		Validate(studentID, pin string) bool
	}

	AuditLog interface {
		Append(ctx context.Context, e audit.Event) error
	}

	StateStore interface {
		Get(ctx context.Context, userID string) (*dialog.Item, error)
		Set(ctx context.Context, userID string, state dialog.State, payload dialog.Payload) error
		SetLastGreeting(ctx context.Context, userID, date string) error
	}
)

type Bot struct {
	log       *slog.Logger
	sender    transport.Sender
	states    StateStore
	students  StudentDirectory
	guardians GuardianRegistry
	pins      PinValidator
	audits    AuditLog
	admins    map[string]bool
	escuela   config.Escuela
	loc       *time.Location

	// pausas artificiales entre respuestas; cero en tests
	delayMin time.Duration
	delayMax time.Duration
	// espera antes del regreso programado al menú
	menuDelay time.Duration
	// espera larga tras mostrar un estado de pagos
	statusMenuDelay time.Duration

	now func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

// session serializa los turnos de un mismo remitente y es dueña del
// timer de regreso al menú. Un mensaje nuevo cancela el timer
// pendiente antes de procesarse.
type session struct {
	mu    sync.Mutex
	timer *time.Timer
}

func New(log *slog.Logger, sender transport.Sender, states StateStore,
	studentsDir StudentDirectory, guardians GuardianRegistry,
	pins PinValidator, audits AuditLog,
	cfg config.Config, loc *time.Location) *Bot {

	admins := make(map[string]bool, len(cfg.Admins))
	for _, a := range cfg.Admins {
		admins[a] = true
	}
	return &Bot{
		log:             log,
		sender:          sender,
		states:          states,
		students:        studentsDir,
		guardians:       guardians,
		pins:            pins,
		audits:          audits,
		admins:          admins,
		escuela:         cfg.Escuela,
		loc:             loc,
		delayMin:        time.Duration(cfg.Delay.MinMS) * time.Millisecond,
		delayMax:        time.Duration(cfg.Delay.MaxMS) * time.Millisecond,
		menuDelay:       1500 * time.Millisecond,
		statusMenuDelay: 15 * time.Second,
		now:             time.Now,
		sessions:        map[string]*session{},
	}
}

// Run consume el canal de entrada hasta que el contexto termine.
// Turnos de remitentes distintos corren en paralelo; los del mismo
// remitente se serializan en su sesión.
func (b *Bot) Run(ctx context.Context, inbound <-chan transport.Inbound) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case in, ok := <-inbound:
			if !ok {
				return nil
			}
			go b.process(ctx, in)
		}
	}
}

func (b *Bot) process(ctx context.Context, in transport.Inbound) {
	s := b.session(in.SenderID)
	s.mu.Lock()
	defer s.mu.Unlock()

	// un turno nuevo invalida cualquier regreso al menú pendiente
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}

	defer func() {
		if r := recover(); r != nil {
			b.log.Error("pánico procesando turno", "sender", in.SenderID, "panic", r)
			b.apologize(ctx, in.SenderID)
		}
	}()

	if err := b.handleTurn(ctx, in); err != nil {
		b.log.Error("turno falló", "sender", in.SenderID, "err", err)
		b.apologize(ctx, in.SenderID)
	}
}

func (b *Bot) session(id string) *session {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.sessions[id]
	if !ok {
		s = &session{}
		b.sessions[id] = s
	}
	return s
}

func (b *Bot) isAdmin(id string) bool { return b.admins[id] }

func (b *Bot) apologize(ctx context.Context, to string) {
	metrics.TurnFailures.Inc()
	b.sendNow(ctx, to, "😔 Ocurrió un error inesperado. Por favor intente nuevamente más tarde.")
}

// sendPaced envía con la pausa aleatoria que imita el ritmo humano.
func (b *Bot) sendPaced(ctx context.Context, to, text string) {
	b.pause(ctx)
	b.sendNow(ctx, to, text)
}

// sendNow envía sin pausa; lo usan los reenvíos de menú.
func (b *Bot) sendNow(ctx context.Context, to, text string) {
	if err := b.sender.SendText(ctx, to, text); err != nil {
		b.log.Error("envío falló", "to", to, "err", err)
	}
}

func (b *Bot) pause(ctx context.Context) {
	if b.delayMax <= 0 {
		return
	}
	d := b.delayMin
	if b.delayMax > b.delayMin {
		d += rand.N(b.delayMax - b.delayMin)
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

// scheduleMenu programa el regreso al menú principal. El timer
// pertenece a la sesión: si llega otro mensaje antes de dispararse,
// process lo cancela.
func (b *Bot) scheduleMenu(ctx context.Context, sender string, after time.Duration) {
	s := b.session(sender)
	s.timer = time.AfterFunc(after, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		b.sendMainMenu(ctx, sender)
	})
}

func (b *Bot) today() string {
	return b.now().In(b.loc).Format("2006-01-02")
}
