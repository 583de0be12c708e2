package schema

import "log/slog"

// Options configures a verification (or a compilation, where it is handed to
// the mapper).
type Options struct {
	// Validator remaps every node's rule descriptors before they run.
	Validator Mapper
	// IgnoreExcess accepts keys that are not declared as fields. Strict nodes
	// reject them regardless.
	IgnoreExcess bool
	// Logger receives debug records for failures and warnings for logic
	// errors. Nil discards them.
	Logger *slog.Logger
}

func mergeOptions(opts []Options) Options {
	var o Options
	for _, it := range opts {
		if it.Validator != nil {
			o.Validator = it.Validator
		}
		if it.IgnoreExcess {
			o.IgnoreExcess = true
		}
		if it.Logger != nil {
			o.Logger = it.Logger
		}
	}
	return o
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.DiscardHandler)
}
