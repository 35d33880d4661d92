package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/pansql/internal/ast"
	"github.com/roach88/pansql/internal/codegen"
	"github.com/roach88/pansql/internal/diag"
)

// Plan is an ordered set of freshly constructed steps. Steps carry state,
// so a plan runs once.
type Plan struct {
	Steps    []Step
	terminal Producer
	ran      bool
}

// IDs lists the step IDs in execution order.
func (p *Plan) IDs() []StepID {
	ids := make([]StepID, len(p.Steps))
	for i, s := range p.Steps {
		ids[i] = s.ID()
	}
	return ids
}

// Build discovers every step the terminal step depends on, directly or
// transitively, and orders them.
//
// Discovery walks dependencies breadth-first from the terminal step and
// the extras, constructing each ID once. Ordering is Kahn's algorithm in
// rounds: a round holds every step whose dependencies all ran in earlier
// rounds, sorted by ID. Build fails with a *diag.BuildError when the
// dependencies form a cycle, or when the terminal step does not end up
// alone in the last round (an extra step nothing depends on).
func Build(terminal Dependency, extras ...Dependency) (*Plan, error) {
	steps, err := discover(append([]Dependency{terminal}, extras...))
	if err != nil {
		return nil, err
	}

	producer, ok := steps[terminal.ID].(Producer)
	if !ok {
		return nil, &diag.BuildError{
			Code:    diag.ErrNoOutputModel,
			Message: fmt.Sprintf("terminal step %s does not produce a script", terminal.ID),
			Path:    []string{string(terminal.ID)},
		}
	}

	rounds, err := order(steps)
	if err != nil {
		return nil, err
	}

	last := rounds[len(rounds)-1]
	if len(last) != 1 || last[0] != terminal.ID {
		var stray []string
		for _, id := range last {
			if id != terminal.ID {
				stray = append(stray, string(id))
			}
		}
		return nil, &diag.BuildError{
			Code: diag.ErrTerminalNotLast,
			Message: fmt.Sprintf("terminal step %s must run last, but %s do not lead to it",
				terminal.ID, strings.Join(stray, ", ")),
			Path: stray,
		}
	}

	plan := &Plan{terminal: producer}
	for _, round := range rounds {
		for _, id := range round {
			plan.Steps = append(plan.Steps, steps[id])
		}
	}
	return plan, nil
}

func discover(roots []Dependency) (map[StepID]Step, error) {
	steps := make(map[StepID]Step)
	queue := append([]Dependency(nil), roots...)
	for len(queue) > 0 {
		dep := queue[0]
		queue = queue[1:]
		if _, seen := steps[dep.ID]; seen {
			continue
		}
		if dep.New == nil {
			return nil, &diag.BuildError{
				Code:    diag.ErrNoConstructor,
				Message: fmt.Sprintf("step %s has no constructor", dep.ID),
				Path:    []string{string(dep.ID)},
			}
		}
		step := dep.New()
		steps[dep.ID] = step
		for _, d := range step.Dependencies() {
			if _, seen := steps[d.ID]; !seen {
				queue = append(queue, d)
			}
		}
	}
	return steps, nil
}

func order(steps map[StepID]Step) ([][]StepID, error) {
	graph := make(stepGraph, len(steps))
	remaining := make(map[StepID]int, len(steps))
	dependents := make(map[StepID][]StepID)
	for id, s := range steps {
		seen := make(map[StepID]bool)
		graph[id] = nil
		for _, d := range s.Dependencies() {
			if seen[d.ID] {
				continue
			}
			seen[d.ID] = true
			graph[id] = append(graph[id], d.ID)
			dependents[d.ID] = append(dependents[d.ID], id)
		}
		remaining[id] = len(graph[id])
	}

	var round []StepID
	for id, n := range remaining {
		if n == 0 {
			round = append(round, id)
		}
	}

	var rounds [][]StepID
	placed := 0
	for len(round) > 0 {
		sort.Slice(round, func(i, j int) bool { return round[i] < round[j] })
		rounds = append(rounds, round)
		placed += len(round)

		var next []StepID
		for _, id := range round {
			for _, dependent := range dependents[id] {
				remaining[dependent]--
				if remaining[dependent] == 0 {
					next = append(next, dependent)
				}
			}
		}
		round = next
	}

	if placed < len(steps) {
		unplaced := make(stepGraph)
		for id, n := range remaining {
			if n > 0 {
				unplaced[id] = graph[id]
			}
		}
		cycle := findCycle(unplaced)
		path := make([]string, len(cycle))
		for i, id := range cycle {
			path[i] = string(id)
		}
		return nil, &diag.BuildError{
			Code:    diag.ErrStepCycle,
			Message: "dependency cycle between compile steps: " + strings.Join(path, " -> "),
			Path:    path,
		}
	}
	return rounds, nil
}

// Process runs every step against file and returns the terminal step's
// script, stamped with the context's script name.
func (p *Plan) Process(ctx *Context, file *ast.File) (*codegen.Script, error) {
	if p.ran {
		return nil, &diag.BuildError{Code: diag.ErrNoOutputModel, Message: "plan has already run"}
	}
	p.ran = true
	if file == nil {
		return nil, &diag.BuildError{Code: diag.ErrNoParseTree, Message: "no parse tree for " + ctx.ScriptName}
	}

	for _, s := range p.Steps {
		if err := s.Initialize(ctx); err != nil {
			return nil, err
		}
	}
	for _, s := range p.Steps {
		ctx.Tracef("step %s", s.ID())
		if err := s.Execute(file); err != nil {
			return nil, err
		}
	}

	script, err := p.terminal.Output()
	if err != nil {
		return nil, err
	}
	if script == nil {
		return nil, &diag.BuildError{
			Code:    diag.ErrNoOutputModel,
			Message: fmt.Sprintf("terminal step %s produced no script", p.terminal.ID()),
		}
	}
	script.Name = ctx.ScriptName
	return script, nil
}
