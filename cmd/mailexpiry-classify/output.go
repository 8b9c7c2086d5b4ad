package main

import (
	"encoding/json"
	"fmt"
	"io"
)

func printResult(w io.Writer, res result, asJSON bool) error {
	if asJSON {
		return json.NewEncoder(w).Encode(res)
	}
	category := res.Category.String()
	if category == "" {
		category = "NONE"
	}
	_, err := fmt.Fprintf(w, "%s\t%s\t%d\n", res.Path, category, res.Days)
	return err
}
