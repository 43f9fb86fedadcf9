package config

import (
	"github.com/jpalmerr/dbpulse"
)

// RowSink receives every decoded row together with the name of the query
// that produced it.
type RowSink func(query string, row dbpulse.Row)

// BuildQueries converts parsed configuration into SDK Query objects bound
// to the given backend.
//
// Every query decodes into [dbpulse.Row] (the CLI cannot know row shapes at
// compile time), and every row is routed to sink tagged with its query
// name. The config-wide query_timeout, and each query's bind args, are
// applied.
func BuildQueries(cfg *Config, backend dbpulse.Backend, sink RowSink) ([]dbpulse.Query[dbpulse.Row], error) {
	queries := make([]dbpulse.Query[dbpulse.Row], 0, len(cfg.Queries))

	for _, qc := range cfg.Queries {
		q, err := buildQuery(cfg, qc, backend, sink)
		if err != nil {
			return nil, err
		}
		queries = append(queries, q)
	}

	return queries, nil
}

// buildQuery converts a single QueryConfig to an SDK Query.
func buildQuery(cfg *Config, qc QueryConfig, backend dbpulse.Backend, sink RowSink) (dbpulse.Query[dbpulse.Row], error) {
	opts := []dbpulse.QueryOption{
		dbpulse.WithName(qc.Name),
	}

	if len(qc.Args) > 0 {
		opts = append(opts, dbpulse.WithArgs(qc.Args...))
	}

	if cfg.QueryTimeout != 0 {
		opts = append(opts, dbpulse.WithQueryTimeout(cfg.QueryTimeout.Duration()))
	}

	name := qc.Name
	action := func(row dbpulse.Row) {
		sink(name, row)
	}

	return dbpulse.NewQuery(backend, qc.SQL, action, opts...)
}
