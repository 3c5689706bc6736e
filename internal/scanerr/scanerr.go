// Package scanerr defines the sentinel error kinds the discovery engine
// surfaces. Callers compare with errors.Is; call sites wrap with
// fmt.Errorf("...: %w", sentinel) so the wrapped cause still prints.
package scanerr

import "errors"

var (
	ErrInvalidTarget     = errors.New("invalid target")
	ErrNoViableInterface = errors.New("no viable interface")
	ErrSocketOpen        = errors.New("could not open socket")
	ErrSend              = errors.New("send failed")
	ErrDecode            = errors.New("decode failed")
	ErrPrivileges        = errors.New("insufficient privileges")
	ErrResolver          = errors.New("resolver failure")
	ErrCancelled         = errors.New("cancelled")
)
