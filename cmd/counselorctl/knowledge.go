package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmstudyabroad/counselor-bot/internal/app"
	"github.com/mmstudyabroad/counselor-bot/internal/knowledge"
	"github.com/mmstudyabroad/counselor-bot/internal/r2client"
)

func (c *cli) knowledgeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "knowledge",
		Short: "Export, publish and check knowledge tables",
	}
	cmd.AddCommand(c.knowledgeExportCmd(), c.knowledgeCheckCmd())
	return cmd
}

func (c *cli) knowledgeExportCmd() *cobra.Command {
	var (
		output   string
		compress bool
		r2Key    string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the built-in table as YAML",
		Long: `Write the built-in knowledge table as YAML, optionally zstd-compressed.

The result can be edited and served with KNOWLEDGE_SOURCE=<file> or, after
--r2 <key>, with KNOWLEDGE_SOURCE=r2://<key>.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var buf bytes.Buffer
			if err := knowledge.Encode(&buf, knowledge.Default()); err != nil {
				return err
			}

			data := buf.Bytes()
			if compress {
				var zbuf bytes.Buffer
				if err := r2client.Compress(&zbuf, &buf); err != nil {
					return err
				}
				data = zbuf.Bytes()
			}

			if r2Key != "" {
				return c.publish(cmd, r2Key, data, compress)
			}

			if output == "" || output == "-" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			printf(cmd.ErrOrStderr(), "Wrote %d entries to %s\n", knowledge.Default().Len(), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	cmd.Flags().BoolVar(&compress, "zstd", false, "Compress with zstd")
	cmd.Flags().StringVar(&r2Key, "r2", "", "Upload to this object key in the configured R2 bucket")
	return cmd
}

func (c *cli) publish(cmd *cobra.Command, key string, data []byte, compressed bool) error {
	if compressed != (knowledge.Source{Kind: knowledge.SourceR2, Location: key}).Compressed() {
		return fmt.Errorf("object key %q must end in .zst exactly when --zstd is set", key)
	}
	cfg, err := c.config()
	if err != nil {
		return err
	}
	store, err := app.NewObjectStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("R2 credentials are not configured")
	}

	contentType := "application/yaml"
	if compressed {
		contentType = "application/zstd"
	}
	etag, err := store.Upload(cmd.Context(), key, bytes.NewReader(data), contentType)
	if err != nil {
		return err
	}
	printf(cmd.OutOrStdout(), "Uploaded r2://%s (etag %s)\n", key, etag)
	return nil
}

func (c *cli) knowledgeCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <source>",
		Short: "Load and validate a knowledge table (file path, r2://key or builtin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := knowledge.ParseSource(args[0])
			if err != nil {
				return err
			}

			var store *r2client.Client
			if src.Kind == knowledge.SourceR2 {
				cfg, err := c.config()
				if err != nil {
					return err
				}
				if store, err = app.NewObjectStore(cmd.Context(), cfg); err != nil {
					return err
				}
				if store == nil {
					return errors.New("R2 credentials are not configured")
				}
				etag, err := store.HeadObject(cmd.Context(), src.Location)
				if err != nil {
					return err
				}
				printf(cmd.ErrOrStderr(), "Found r2://%s (etag %s)\n", src.Location, etag)
			}

			var kb *knowledge.Base
			if store != nil {
				kb, err = knowledge.Load(cmd.Context(), src, store)
			} else {
				kb, err = knowledge.Load(cmd.Context(), src, nil)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printf(out, "OK: %d entries from %s\n", kb.Len(), src)
			if c.verbose {
				listEntries(out, kb)
			}
			return nil
		},
	}
}

func listEntries(w io.Writer, kb *knowledge.Base) {
	for _, e := range kb.Entries() {
		generic := ""
		if e.Generic {
			generic = " (generic)"
		}
		printf(w, "  %-20s %d keywords%s\n", e.ID, len(e.Keywords), generic)
	}
}
