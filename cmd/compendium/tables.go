package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KirkDiggler/rpg-compendium/internal/entities/compendium"
	"github.com/KirkDiggler/rpg-compendium/internal/errors"
	"github.com/KirkDiggler/rpg-compendium/internal/tables"
)

var rollTableName string

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "Work with roll tables embedded in prose",
}

var detectTablesCmd = &cobra.Command{
	Use:   "detect <file>",
	Short: "Print the tables found in a text file as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runDetectTables,
}

var rollTableCmd = &cobra.Command{
	Use:   "roll <file>",
	Short: "Roll on a table found in a text file",
	Args:  cobra.ExactArgs(1),
	RunE:  runRollTable,
}

func init() {
	rollTableCmd.Flags().StringVar(&rollTableName, "table", "", "table name (defaults to the first table)")

	tablesCmd.AddCommand(detectTablesCmd)
	tablesCmd.AddCommand(rollTableCmd)
}

// detectedTable pairs a detected span with its parse
type detectedTable struct {
	Detected compendium.DetectedTable `json:"detected"`
	Parsed   compendium.ParsedTable   `json:"parsed"`
}

func readText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.NotFoundf("file %s not found", path)
		}
		return "", errors.Wrapf(err, "failed to read %s", path)
	}
	return string(data), nil
}

func runDetectTables(cmd *cobra.Command, args []string) error {
	text, err := readText(args[0])
	if err != nil {
		return err
	}

	found := make([]detectedTable, 0)
	for _, d := range tables.Detect(text) {
		found = append(found, detectedTable{Detected: d, Parsed: tables.Parse(d)})
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(found); err != nil {
		return errors.Wrap(err, "failed to write tables")
	}
	return nil
}

func runRollTable(cmd *cobra.Command, args []string) error {
	text, err := readText(args[0])
	if err != nil {
		return err
	}

	table, err := findTable(tables.Extract(text), rollTableName)
	if err != nil {
		return err
	}

	result, err := tables.NewRoller(nil).Roll(table)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s (%s): rolled %d -> %s\n",
		table.TableName, result.DiceType, result.Total, result.Row.ResultText)
	return nil
}

// findTable returns the table whose name matches case-insensitively, or the
// first table when name is empty
func findTable(found []compendium.ParsedTable, name string) (*compendium.ParsedTable, error) {
	if len(found) == 0 {
		return nil, errors.NotFound("no tables found")
	}
	if name == "" {
		return &found[0], nil
	}
	for i := range found {
		if strings.EqualFold(found[i].TableName, name) {
			return &found[i], nil
		}
	}
	return nil, errors.NotFoundf("table %q not found", name)
}
