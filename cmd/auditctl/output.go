package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
)

func printResult(v interface{}) {
	if output == "json" {
		json.NewEncoder(os.Stdout).Encode(v)
		return
	}
	printTable(v)
}

func printTable(v interface{}) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	switch data := v.(type) {
	case []AuditLogRow:
		if len(data) == 0 {
			fmt.Println("No audit logs found.")
			return
		}
		fmt.Fprintln(w, "ID\tACTION\tRESOURCE\tRESOURCE ID\tACTOR\tCREATED")
		for _, l := range data {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				shortID(l.ID), l.Action, l.ResourceType, l.ResourceID, l.ActorID, l.CreatedAt)
		}
	case AuditLogRow:
		fmt.Fprintf(w, "ID:\t%s\n", data.ID)
		fmt.Fprintf(w, "Action:\t%s\n", data.Action)
		fmt.Fprintf(w, "Resource:\t%s\n", data.ResourceType)
		fmt.Fprintf(w, "Resource ID:\t%s\n", data.ResourceID)
		fmt.Fprintf(w, "Actor:\t%s\n", data.ActorID)
		fmt.Fprintf(w, "Request ID:\t%s\n", data.RequestID)
		fmt.Fprintf(w, "Client IP:\t%s\n", data.ClientIP)
		fmt.Fprintf(w, "User Agent:\t%s\n", data.UserAgent)
		fmt.Fprintf(w, "Created:\t%s\n", data.CreatedAt)
		if data.OldState != nil {
			fmt.Fprintf(w, "Old State:\t%s\n", compactJSON(data.OldState))
		}
		if data.NewState != nil {
			fmt.Fprintf(w, "New State:\t%s\n", compactJSON(data.NewState))
		}
	default:
		json.NewEncoder(os.Stdout).Encode(v)
		return
	}
	w.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func compactJSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
