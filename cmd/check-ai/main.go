package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/kalpovskii/checklist-ai/internal/app/suggest"
	"github.com/kalpovskii/checklist-ai/internal/config"
)

// check-ai sends one greeting through the suggestion gateway to verify the
// OpenAI key and connection settings the API would use.
func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	gateway := suggest.NewGateway(cfg.Suggest(), nil)
	if err := check(context.Background(), gateway, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

type checker interface {
	Check(ctx context.Context) (string, error)
}

func check(ctx context.Context, c checker, out io.Writer) error {
	reply, err := c.Check(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "Success:", reply)
	return nil
}
