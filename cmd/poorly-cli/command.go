package main

import (
	"fmt"
	"strconv"
	"strings"
)

// Command grammar, one command per line, space separated:
//
//	Select <db> <table> <columns> <conditions>
//	Insert <db> <table> <values>
//	Update <db> <table> <set> <conditions>
//	Delete <db> <table> <conditions>
//	Create <db> <table> <name=type,...>
//	Drop <db> <table>
//	Alter <db> <table> <old=new,...>
//	CreateDb <name>
//	DropDb <name>
//	ShowTables <db>
//	Join <db> <table1> <table2> <columns> <conditions> <left=right,...>
//
// <columns> and <conditions> take "_" for "all" and "none" respectively.
// Values in key=value lists are inferred: int, then float, then string.
type Command struct {
	Action  string
	Payload map[string]any
}

func ParseCommand(line string) (*Command, error) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return nil, fmt.Errorf("empty command")
	}

	switch parts[0] {
	case "Select":
		if len(parts) != 5 {
			return nil, usageErr("Select <db> <table> <columns> <conditions>")
		}
		where, err := parseKeyValues(parts[4])
		if err != nil {
			return nil, err
		}
		return &Command{"select", map[string]any{
			"db": parts[1], "table": parts[2],
			"columns": parseColumns(parts[3]), "where": where,
		}}, nil

	case "Insert":
		if len(parts) != 4 {
			return nil, usageErr("Insert <db> <table> <values>")
		}
		values, err := parseKeyValues(parts[3])
		if err != nil {
			return nil, err
		}
		return &Command{"insert", map[string]any{
			"db": parts[1], "table": parts[2], "values": values,
		}}, nil

	case "Update":
		if len(parts) != 5 {
			return nil, usageErr("Update <db> <table> <set> <conditions>")
		}
		set, err := parseKeyValues(parts[3])
		if err != nil {
			return nil, err
		}
		where, err := parseKeyValues(parts[4])
		if err != nil {
			return nil, err
		}
		return &Command{"update", map[string]any{
			"db": parts[1], "table": parts[2], "set": set, "where": where,
		}}, nil

	case "Delete":
		if len(parts) != 4 {
			return nil, usageErr("Delete <db> <table> <conditions>")
		}
		where, err := parseKeyValues(parts[3])
		if err != nil {
			return nil, err
		}
		return &Command{"delete", map[string]any{
			"db": parts[1], "table": parts[2], "where": where,
		}}, nil

	case "Create":
		if len(parts) != 4 {
			return nil, usageErr("Create <db> <table> <name=type,...>")
		}
		columns, err := parsePairList(parts[3], "name", "type")
		if err != nil {
			return nil, err
		}
		return &Command{"create", map[string]any{
			"db": parts[1], "table": parts[2], "columns": columns,
		}}, nil

	case "Drop":
		if len(parts) != 3 {
			return nil, usageErr("Drop <db> <table>")
		}
		return &Command{"drop", map[string]any{"db": parts[1], "table": parts[2]}}, nil

	case "Alter":
		if len(parts) != 4 {
			return nil, usageErr("Alter <db> <table> <old=new,...>")
		}
		rename, err := parseStringPairs(parts[3])
		if err != nil {
			return nil, err
		}
		return &Command{"alter", map[string]any{
			"db": parts[1], "table": parts[2], "rename": rename,
		}}, nil

	case "CreateDb":
		if len(parts) != 2 {
			return nil, usageErr("CreateDb <name>")
		}
		return &Command{"createDb", map[string]any{"name": parts[1]}}, nil

	case "DropDb":
		if len(parts) != 2 {
			return nil, usageErr("DropDb <name>")
		}
		return &Command{"dropDb", map[string]any{"name": parts[1]}}, nil

	case "ShowTables":
		if len(parts) != 2 {
			return nil, usageErr("ShowTables <db>")
		}
		return &Command{"showTables", map[string]any{"db": parts[1]}}, nil

	case "Join":
		if len(parts) != 7 {
			return nil, usageErr("Join <db> <table1> <table2> <columns> <conditions> <left=right,...>")
		}
		where, err := parseKeyValues(parts[5])
		if err != nil {
			return nil, err
		}
		on, err := parsePairList(parts[6], "left", "right")
		if err != nil {
			return nil, err
		}
		return &Command{"join", map[string]any{
			"db": parts[1], "table": parts[2], "table2": parts[3],
			"columns": parseColumns(parts[4]), "where": where, "on": on,
		}}, nil
	}

	return nil, fmt.Errorf("invalid command: %s", parts[0])
}

func usageErr(usage string) error {
	return fmt.Errorf("usage: %s", usage)
}

func parseColumns(s string) []string {
	if s == "_" || s == "*" {
		return []string{}
	}
	return strings.Split(s, ",")
}

func parseKeyValues(s string) (map[string]any, error) {
	out := map[string]any{}
	if s == "_" {
		return out, nil
	}
	for _, pair := range strings.Split(s, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid key=value: no `=` found in %q", pair)
		}
		out[key] = parseValue(value)
	}
	return out, nil
}

// parseValue infers a literal's type: int, then float, then string.
func parseValue(s string) any {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

func parseStringPairs(s string) (map[string]string, error) {
	out := map[string]string{}
	for _, pair := range strings.Split(s, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid key=value: no `=` found in %q", pair)
		}
		out[key] = value
	}
	return out, nil
}

// parsePairList keeps the written order, unlike parseStringPairs.
func parsePairList(s string, left_key, right_key string) ([]map[string]string, error) {
	out := []map[string]string{}
	for _, pair := range strings.Split(s, ",") {
		left, right, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid key=value: no `=` found in %q", pair)
		}
		out = append(out, map[string]string{left_key: left, right_key: right})
	}
	return out, nil
}
