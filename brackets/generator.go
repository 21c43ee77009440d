package brackets

// Generator builds a full bracket structure from a seeded entry list.
// Implementations are pure: no I/O, no shared state.
type Generator interface {
	Generate(entries []Entry) (*Bracket, error)
	Format() Format
}

// NewGenerator returns the generator for the given format.
func NewGenerator(format Format) (Generator, error) {
	switch format {
	case SingleElimination:
		return &SingleEliminationGenerator{}, nil
	case DoubleElimination:
		return &DoubleEliminationGenerator{}, nil
	case RoundRobin:
		return &RoundRobinGenerator{}, nil
	default:
		return nil, ErrUnknownFormat
	}
}
