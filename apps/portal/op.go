package portal

import (
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/assignment"
	"github.com/trezcool/coursework/core/course"
	"github.com/trezcool/coursework/core/submission"
	"github.com/trezcool/coursework/core/user"
	"github.com/trezcool/coursework/storage/kvstore"
)

var (
	sleepFunc = time.Sleep // mockable

	// errors
	ErrBusy     = errors.New("this action is already in progress")
	ErrInternal = errors.New("something went wrong, please try again")
	ErrClosed   = core.NewShutdownError("portal is closed")
)

// acquire marks control as in flight. It fails if it already is or if the portal is closed.
func (p *Portal) acquire(control string) error {
	p.busyMu.Lock()
	defer p.busyMu.Unlock()

	if p.closed {
		return ErrClosed
	}
	if _, ok := p.busy[control]; ok {
		return ErrBusy
	}
	p.busy[control] = struct{}{}
	return nil
}

func (p *Portal) release(control string) {
	p.busyMu.Lock()
	delete(p.busy, control)
	p.busyMu.Unlock()
}

// Busy reports whether the operation bound to control is in flight; its trigger should be disabled meanwhile.
func (p *Portal) Busy(control string) bool {
	p.busyMu.Lock()
	defer p.busyMu.Unlock()
	_, ok := p.busy[control]
	return ok
}

// control names the trigger of an operation, e.g. "grade:12".
func control(op string, id core.ID) string {
	if id == 0 {
		return op
	}
	return op + ":" + id.String()
}

// run executes a mutation the way the UI does: the trigger is disabled while the simulated round trip lasts,
// and a failure, panics included, comes back as an error. Once started, an operation always completes.
func (p *Portal) run(ctrl string, fn func() error) (err error) {
	if err := p.acquire(ctrl); err != nil {
		return err
	}
	defer p.release(ctrl)

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("portal: "+ctrl+" panicked", fmt.Errorf("%v", r))
			err = ErrInternal
		}
	}()

	if p.conf.Latency > 0 {
		sleepFunc(p.conf.Latency)
	}
	if err = fn(); err != nil && !isExpected(err) {
		p.logger.Error("portal: "+ctrl, err)
	}
	return err
}

// isExpected tells user mistakes apart from failures worth reporting.
func isExpected(err error) bool {
	if core.IsValidationError(err) || core.IsConflict(err) || core.IsPermissionDenied(err) || core.IsShutdown(err) {
		return true
	}
	switch errors.Cause(err) {
	case user.ErrNotFound, user.ErrInvalidCredentials, user.ErrInactive, user.ErrRoleMismatch,
		assignment.ErrNotFound, submission.ErrNotFound, course.ErrNotFound,
		submission.ErrInvalidTransition, submission.ErrAssignmentClosed:
		return true
	}
	return false
}

// Message is the notification shown to the user for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if vErr, ok := errors.Cause(err).(*core.ValidationError); ok {
		for _, f := range vErr.Fields {
			return f.Error
		}
		return vErr.Error()
	}
	if core.IsConflict(err) || core.IsPermissionDenied(err) {
		return errors.Cause(err).Error()
	}
	if core.IsShutdown(err) {
		return "Сеанс завершен, обновите страницу"
	}

	switch errors.Cause(err) {
	case kvstore.ErrWriteFailed:
		return "Не удалось сохранить изменения"
	case ErrBusy:
		return "Операция уже выполняется"
	case user.ErrInvalidCredentials:
		return "Неверный логин или пароль"
	case user.ErrInactive:
		return "Учетная запись отключена"
	case user.ErrRoleMismatch:
		return "Неверная роль для этой учетной записи"
	case user.ErrNotFound:
		return "Пользователь не найден"
	case assignment.ErrNotFound:
		return "Задание не найдено"
	case submission.ErrNotFound:
		return "Работа не найдена"
	case course.ErrNotFound:
		return "Курс не найден"
	case submission.ErrInvalidTransition, submission.ErrAssignmentClosed:
		return errors.Cause(err).Error()
	}
	return "Произошла ошибка, попробуйте еще раз"
}
