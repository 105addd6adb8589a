//go:build !linux && !windows

package platform

import (
	"context"
	"errors"
	"runtime"
)

type fallbackProvider struct{}

func newProvider(Options) Provider { return fallbackProvider{} }

func (fallbackProvider) WindowTitle(context.Context, int32) string { return "" }

func (fallbackProvider) ProcessVersion(context.Context, string) string { return UnknownVersion }

func windowTitleSupport() (string, error) {
	return "", errors.New("window titles are not supported on " + runtime.GOOS)
}
