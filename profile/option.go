//go:build pprof

package profile

import "github.com/pkg/profile"

// control accumulates pkg/profile options.
type control struct {
	opts []func(*profile.Profile)
}

type option func(control) control

func apply(c control, opts ...option) control {
	for _, opt := range opts {
		c = opt(c)
	}

	return c
}

func newControl(opts ...option) control {
	return apply(control{}, opts...)
}

func withMode(m string) option {
	return func(c control) control {
		if fn, ok := mode[m]; ok {
			c.opts = append(c.opts, fn)
		}

		return c
	}
}

func withPath(dir string) option {
	return func(c control) control {
		if dir != "" {
			c.opts = append(c.opts, profile.ProfilePath(dir))
		}

		return c
	}
}

func withQuiet(quiet bool) option {
	return func(c control) control {
		if quiet {
			c.opts = append(c.opts, profile.Quiet)
		}

		return c
	}
}
