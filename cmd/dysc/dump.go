package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"dysc/internal/ast"
	"dysc/internal/astio"
	"dysc/internal/pipeline"
)

var dumpCmd = &cobra.Command{
	Use:   "dump [flags] <tree>",
	Short: "Print a tree after a pipeline stage",
	Long: `Run one tree through the pipeline up to --stage and print the result.
Stages decode, infer and lower print the tree; emit prints the IR.`,
	Args: cobra.ExactArgs(1),
	RunE: runDump,
}

func init() {
	dumpCmd.Flags().String("stage", "infer", "last stage to run (decode|infer|lower|emit)")
	dumpCmd.Flags().String("format", "auto", "input format (auto|msgpack|json)")
	dumpCmd.Flags().String("out", "text", "tree output (text|json|msgpack)")
}

func runDump(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	stageStr, err := flags.GetString("stage")
	if err != nil {
		return err
	}
	stage, ok := pipeline.ParseStage(stageStr)
	if !ok {
		return fmt.Errorf("invalid --stage value %q (expected decode|infer|lower|emit)", stageStr)
	}
	formatStr, err := flags.GetString("format")
	if err != nil {
		return err
	}
	var format astio.Format
	if formatStr != "" && formatStr != "auto" {
		if format, err = astio.ParseFormat(formatStr); err != nil {
			return err
		}
	}
	outStr, err := flags.GetString("out")
	if err != nil {
		return err
	}

	cfg := configFrom(cmd.Context())
	res, err := pipeline.Compile(cmd.Context(), &pipeline.Request{
		Name:    args[0],
		Path:    args[0],
		Format:  format,
		Until:   stage,
		Options: cfg.PipelineOptions(),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	if stage == pipeline.StageEmit {
		_, err = io.WriteString(cmd.OutOrStdout(), res.IR)
		return err
	}
	return writeTree(cmd.OutOrStdout(), res.Tree, outStr)
}

func writeTree(w io.Writer, tree ast.Node, out string) error {
	switch out {
	case "", "text":
		_, err := io.WriteString(w, ast.DumpTree(tree))
		return err
	default:
		format, err := astio.ParseFormat(out)
		if err != nil {
			return fmt.Errorf("invalid --out value %q (expected text|json|msgpack)", out)
		}
		return astio.Encode(w, tree, format)
	}
}
