package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/rotisserie/eris"

	"github.com/planora/provider-discovery/internal/model"
)

var outputFormat string

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrap(err, "output: marshal json")
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

// printResult writes a discovery result in the selected output format.
func printResult(w io.Writer, format string, res *model.RankedResult, header map[string]string) error {
	switch format {
	case "", "json":
		out := map[string]any{}
		for k, v := range header {
			out[k] = v
		}
		out["event_location"] = res.Location.ToJSON()
		out["location_source"] = string(res.Location.Source)
		out["service_providers"] = res.ProvidersJSON()
		return printJSON(w, out)
	case formatGeoJSON:
		b, err := encodeGeoJSON(res)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	default:
		return eris.Errorf("output: unknown format %q", format)
	}
}
