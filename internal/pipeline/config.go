package pipeline

import "time"

// Retry is one step's attempt budget: total attempts (not extra tries) and
// the pause between them.
type Retry struct {
	Attempts int           `yaml:"attempts"`
	Wait     time.Duration `yaml:"wait"`
}

// Config tunes the pipeline. The zero value is not usable; start from
// DefaultConfig and override fields, or load overrides from the config file.
type Config struct {
	Prepare  Retry `yaml:"prepare"`
	Outline  Retry `yaml:"outline"`
	Research Retry `yaml:"research"`
	Merge    Retry `yaml:"merge"`
	Write    Retry `yaml:"write"`

	// MergeTimeout bounds how long the merge step waits for the outline and
	// research branches together.
	MergeTimeout time.Duration `yaml:"merge_timeout"`

	// StrictResearch fails the merge when any requested technology has no
	// findings. When false (the default) missing findings are logged and the
	// document is written from what arrived.
	StrictResearch bool `yaml:"strict_research"`

	// SearchDelay is the pause between consecutive sub-queries for one
	// technology, out of politeness to the search engine.
	SearchDelay time.Duration `yaml:"search_delay"`

	OutlineMaxTokens  int `yaml:"outline_max_tokens"`
	DocumentMaxTokens int `yaml:"document_max_tokens"`

	// MaxTechnologies caps how many technologies one run may cover.
	MaxTechnologies int `yaml:"max_technologies"`

	// MaxConcurrentResearch caps how many technologies are researched at
	// once. Zero means all at once.
	MaxConcurrentResearch int `yaml:"max_concurrent_research"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Prepare:  Retry{Attempts: 1},
		Outline:  Retry{Attempts: 2, Wait: time.Second},
		Research: Retry{Attempts: 2, Wait: 2 * time.Second},
		Merge:    Retry{Attempts: 1, Wait: time.Second},
		Write:    Retry{Attempts: 3, Wait: time.Second},

		MergeTimeout:      5 * time.Minute,
		SearchDelay:       time.Second,
		OutlineMaxTokens:  2000,
		DocumentMaxTokens: 4000,
		MaxTechnologies:   10,
	}
}

// withDefaults fills unset fields from DefaultConfig, so partial overrides
// from a config file keep sane values everywhere else.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	fill := func(r *Retry, d Retry) {
		if r.Attempts <= 0 {
			r.Attempts = d.Attempts
		}
		if r.Wait < 0 {
			r.Wait = d.Wait
		}
	}
	fill(&c.Prepare, def.Prepare)
	fill(&c.Outline, def.Outline)
	fill(&c.Research, def.Research)
	fill(&c.Merge, def.Merge)
	fill(&c.Write, def.Write)

	if c.MergeTimeout <= 0 {
		c.MergeTimeout = def.MergeTimeout
	}
	if c.SearchDelay < 0 {
		c.SearchDelay = def.SearchDelay
	}
	if c.OutlineMaxTokens <= 0 {
		c.OutlineMaxTokens = def.OutlineMaxTokens
	}
	if c.DocumentMaxTokens <= 0 {
		c.DocumentMaxTokens = def.DocumentMaxTokens
	}
	if c.MaxTechnologies <= 0 {
		c.MaxTechnologies = def.MaxTechnologies
	}
	return c
}
