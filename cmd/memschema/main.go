// Command memschema prints the JSON Schema of the Charlotte memory file.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/petasbytes/charlotte-bridge/memory"
)

func main() {
	if err := write(os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "memschema: %v\n", err)
		os.Exit(1)
	}
}

func write(w io.Writer) error {
	b, err := json.MarshalIndent(memory.Schema(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", b)
	return err
}
