package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mupacs/internal/textutil"
)

// queryColumns lists, per level, the header and the match field rendered
// under it. PatientName, dates, and sex get the human rendering.
var queryColumns = map[string][]struct {
	header string
	field  string
}{
	"patients": {
		{"Patient", "PatientName"},
		{"Patient ID", "PatientID"},
		{"Born", "PatientBirthDate"},
		{"Sex", "PatientSex"},
	},
	"studies": {
		{"Study UID", "StudyInstanceUID"},
		{"Study ID", "StudyID"},
		{"Description", "StudyDescription"},
		{"Date", "StudyDate"},
		{"Patient", "PatientName"},
	},
	"series": {
		{"Series UID", "SeriesInstanceUID"},
		{"Modality", "Modality"},
		{"Number", "SeriesNumber"},
		{"Description", "SeriesDescription"},
		{"Study UID", "StudyInstanceUID"},
	},
	"images": {
		{"SOP UID", "SOPInstanceUID"},
		{"Number", "InstanceNumber"},
		{"Series UID", "SeriesInstanceUID"},
		{"Path", "StoragePath"},
	},
}

func newQueryCommand(ctx *commandContext) *cobra.Command {
	var keyFlags []string

	cmd := &cobra.Command{
		Use:   "query {patients|studies|series|images}",
		Short: "Query the archive at one hierarchy level",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			level := strings.ToLower(strings.TrimSpace(args[0]))
			columns, ok := queryColumns[level]
			if !ok {
				return fmt.Errorf("unknown query level %q (patients, studies, series, or images)", args[0])
			}

			keys, err := parseKeyFlags(keyFlags)
			if err != nil {
				return err
			}

			client, err := ctx.client()
			if err != nil {
				return err
			}
			matches, err := client.Query(cmd.Context(), level, keys)
			if err != nil {
				return err
			}
			if len(matches) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No matches.")
				return nil
			}

			headers := make([]string, len(columns))
			for i, col := range columns {
				headers[i] = col.header
			}
			rows := make([][]string, 0, len(matches))
			for _, match := range matches {
				row := make([]string, len(columns))
				for i, col := range columns {
					row[i] = renderField(col.field, match[col.field])
				}
				rows = append(rows, row)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows, nil))
			fmt.Fprintf(cmd.OutOrStdout(), "%d match(es)\n", len(matches))
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&keyFlags, "key", "k", nil, "Search key as Field=value (repeatable; * and ? wildcards)")
	return cmd
}

func parseKeyFlags(flags []string) (map[string]string, error) {
	keys := make(map[string]string, len(flags))
	for _, flag := range flags {
		field, value, ok := strings.Cut(flag, "=")
		field = strings.TrimSpace(field)
		if !ok || field == "" {
			return nil, fmt.Errorf("invalid --key %q, expected Field=value", flag)
		}
		keys[field] = strings.TrimSpace(value)
	}
	return keys, nil
}

func renderField(field, value string) string {
	switch field {
	case "PatientName", "ReferringPhysicianName":
		return textutil.DisplayPersonName(value)
	case "PatientSex":
		return textutil.DisplaySex(value)
	case "PatientBirthDate", "StudyDate":
		return textutil.DisplayDate(value)
	}
	return value
}
