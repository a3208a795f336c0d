// Package neodex embeds the near-Earth object query engine in a Go program.
//
// A Client loads a close-approach dataset once and answers date and filter
// queries against it in memory:
//
//	client, _ := neodex.Open(ctx, "s3://neo/neos.csv.zst",
//	    neodex.WithS3("minio:9000", key, secret, false),
//	)
//	defer client.Close()
//
//	objs, _ := client.Search(ctx, neodex.Query{
//	    StartDate: "2020-01-01",
//	    EndDate:   "2020-01-31",
//	    Filters:   []string{"is_hazardous:=:True", "distance:<=:1000000"},
//	    Limit:     20,
//	})
//
// Results of identical queries can be shared between processes through a
// Valkey cache (WithValkey).
package neodex
