package cmd

import (
	"fmt"
	"strings"

	"github.com/AnyUserName/squarecards/internal/profile"
	"github.com/AnyUserName/squarecards/internal/project"
	"github.com/AnyUserName/squarecards/internal/render"
	"github.com/AnyUserName/squarecards/internal/source"
	"github.com/AnyUserName/squarecards/internal/store"
)

// loadedProject is a project file applied to a fresh store.
type loadedProject struct {
	path  string
	store *store.Store
	style render.Style
}

// loadProject reads, validates and applies the project at path.
func loadProject(path string) (*loadedProject, error) {
	p, err := project.Load(path)
	if err != nil {
		return nil, err
	}
	if err := p.Expand(); err != nil {
		return nil, err
	}
	if errs := project.Validate(p); len(errs) > 0 {
		return nil, fmt.Errorf("invalid project %s:\n    • %s", path, strings.Join(errs, "\n    • "))
	}
	style, err := p.RenderStyle()
	if err != nil {
		return nil, err
	}

	st := store.New(profile.MaxCards, source.Release)
	added, err := project.Apply(p, st)
	if err != nil {
		return nil, err
	}
	logVerbose("project: %s (%d cards)", path, len(added))
	return &loadedProject{path: path, store: st, style: style}, nil
}
