// Package tldr loads delimited files into named, typed tables described by a
// small declarative language.
//
// A program is a list of file directives. Each directive names a CSV file and
// optionally overrides the types of some of its columns:
//
//	# sales figures
//	load_files CSV(
//	    file_name = "sales.csv",
//	    separator = ',',
//	    max_read_records = 100,
//	    field_types {
//	        ("day": Date "%Y-%m-%d")
//	        ("amount": Float64 nullable)
//	    }
//	)
//
// The schema of every file is inferred from a sample of its rows and then
// reconciled with the declared column types. The rows are read into Arrow
// record batches and registered as a table named after the file, here
// "sales", in an in-memory SQLite database.
//
// # Basic Usage
//
//	builder := tldr.NewBuilder().AddProgramFile("load.tldr")
//	validatedBuilder, err := builder.Build(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ec, err := validatedBuilder.Open(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ec.Close()
//
//	rows, err := ec.QueryContext(ctx, "SELECT day, SUM(amount) FROM sales GROUP BY day")
//
// # Partial Loads
//
// Builder.Open discards the engine context when a directive fails. A Loader
// runs a program against a caller owned context instead, so that the tables of
// the directives preceding the failure stay queryable:
//
//	ec, err := engine.New(ctx)
//	...
//	err = tldr.NewLoader(tldr.WithConcurrency(4)).Load(ctx, program, ec)
//
// # Errors
//
// Every failure matches one of ErrParse, ErrFileNotFound, ErrSchemaInference,
// ErrSchemaMergeConflict, ErrFileRead or ErrTableRegistration with errors.Is.
// Failures after parsing are *LoadError values naming the file, the table and,
// where known, the column.
//
// # Compressed Files
//
// Files ending in .csv.gz, .csv.bz2, .csv.xz or .csv.zst are decompressed
// while they are read. The compression suffix is not part of the table name.
package tldr
