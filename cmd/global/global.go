package global

import (
	"bytes"

	"github.com/markusressel/thermal2go/internal/ui"
	"github.com/mgutz/ansi"
	"github.com/tomlazar/table"
)

var (
	CfgFile string
	NoColor bool
	NoStyle bool
	Verbose bool
)

// TableConfig is the style of all tables printed by the cli
func TableConfig() *table.Config {
	return &table.Config{
		ShowIndex:       false,
		Color:           !NoColor,
		AlternateColors: true,
		TitleColorCode:  ansi.ColorCode("white+buf"),
		AltColorCodes: []string{
			ansi.ColorCode("white"),
			ansi.ColorCode("white:236"),
		},
	}
}

// PrintTables prints the given tables, skipping empty ones
func PrintTables(tables ...table.Table) error {
	for idx, t := range tables {
		if t.Rows == nil {
			continue
		}
		var buf bytes.Buffer
		if err := t.WriteTable(&buf, TableConfig()); err != nil {
			return err
		}
		tableString := buf.String()
		if idx < (len(tables) - 1) {
			ui.Printf("%s", tableString)
		} else {
			ui.Println("%s", tableString)
		}
	}
	return nil
}
