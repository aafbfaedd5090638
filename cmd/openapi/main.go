// Command openapi exports the registered Swagger document as YAML and checks
// a revision for backward-incompatible changes.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	_ "blog/docs" // registers the swagger doc
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage:")
	fmt.Fprintln(os.Stderr, "  openapi export [-o swagger.yaml]")
	fmt.Fprintln(os.Stderr, "  openapi compat -base <path> -revision <path>")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "export":
		fs := flag.NewFlagSet("export", flag.ExitOnError)
		out := fs.String("o", "", "output file (stdout when empty)")
		_ = fs.Parse(os.Args[2:])

		data, err := exportYAML()
		if err != nil {
			fmt.Fprintf(os.Stderr, "export failed: %v\n", err)
			os.Exit(1)
		}
		if *out == "" {
			_, _ = os.Stdout.Write(data)
			return
		}
		if err := os.WriteFile(*out, data, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "write %s: %v\n", *out, err)
			os.Exit(1)
		}
		fmt.Printf("wrote %s\n", *out)

	case "compat":
		fs := flag.NewFlagSet("compat", flag.ExitOnError)
		basePath := fs.String("base", "", "base OpenAPI document (YAML or JSON)")
		revisionPath := fs.String("revision", "", "revision OpenAPI document (YAML or JSON)")
		_ = fs.Parse(os.Args[2:])

		if strings.TrimSpace(*basePath) == "" || strings.TrimSpace(*revisionPath) == "" {
			usage()
			os.Exit(2)
		}

		base, err := loadSpec(*basePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load base spec: %v\n", err)
			os.Exit(1)
		}
		revision, err := loadSpec(*revisionPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load revision spec: %v\n", err)
			os.Exit(1)
		}

		issues := compare(base, revision)
		if len(issues) > 0 {
			fmt.Fprintln(os.Stderr, "backward compatibility check failed:")
			for _, issue := range issues {
				fmt.Fprintf(os.Stderr, "- %s\n", issue)
			}
			os.Exit(1)
		}
		fmt.Println("openapi compatibility check passed")

	default:
		usage()
		os.Exit(2)
	}
}
