package svcmgr

import (
	"errors"

	"github.com/kardianos/service"
)

// RunState is a coarse service-manager view of the agent.
type RunState string

const (
	StateRunning      RunState = "running"
	StateStopped      RunState = "stopped"
	StateNotInstalled RunState = "not installed"
	StateUnknown      RunState = "unknown"
)

// nopProgram satisfies service.Interface for status-only queries; the
// installer never runs as the service itself.
type nopProgram struct{}

func (nopProgram) Start(service.Service) error { return nil }
func (nopProgram) Stop(service.Service) error  { return nil }

// QueryRunState asks the service manager about a label's current state.
func QueryRunState(label string) (RunState, error) {
	svc, err := service.New(nopProgram{}, &service.Config{
		Name:   label,
		Option: service.KeyValue{"UserService": true},
	})
	if err != nil {
		return StateUnknown, err
	}

	status, err := svc.Status()
	switch {
	case errors.Is(err, service.ErrNotInstalled):
		return StateNotInstalled, nil
	case err != nil:
		return StateUnknown, err
	}

	switch status {
	case service.StatusRunning:
		return StateRunning, nil
	case service.StatusStopped:
		return StateStopped, nil
	default:
		return StateUnknown, nil
	}
}
