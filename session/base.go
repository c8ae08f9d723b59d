package session

import (
	"context"

	"github.com/kbukum/deferhttp/capability"
	apperrors "github.com/kbukum/deferhttp/errors"
)

// Base is the capability a session is composed with. It receives the
// options the transport did not accept and is closed after the transport.
type Base interface {
	Close(ctx context.Context) error
}

// BaseFactory builds a Base from the leftover options.
type BaseFactory func(rest *capability.Options) (Base, error)

// NoBase is the factory for sessions without a base capability. Any
// leftover key is an invalid argument.
func NoBase(rest *capability.Options) (Base, error) {
	if rest.Len() > 0 {
		return nil, apperrors.InvalidArgument(rest.Keys()...)
	}
	return nopBase{}, nil
}

type nopBase struct{}

func (nopBase) Close(context.Context) error { return nil }
