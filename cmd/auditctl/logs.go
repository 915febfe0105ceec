package main

import (
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

type AuditLogRow struct {
	ID           string                 `json:"id"`
	ActorID      string                 `json:"actor_id,omitempty"`
	RequestID    string                 `json:"request_id,omitempty"`
	Action       string                 `json:"action"`
	ResourceType string                 `json:"resource_type"`
	ResourceID   string                 `json:"resource_id,omitempty"`
	OldState     map[string]interface{} `json:"old_state,omitempty"`
	NewState     map[string]interface{} `json:"new_state,omitempty"`
	ClientIP     string                 `json:"client_ip,omitempty"`
	UserAgent    string                 `json:"user_agent,omitempty"`
	CreatedAt    string                 `json:"created_at"`
}

type AuditLogListResponse struct {
	AuditLogs  []AuditLogRow `json:"audit_logs"`
	NextCursor string        `json:"next_cursor"`
}

var (
	logsResourceType string
	logsResourceID   string
	logsAction       string
	logsActorID      string
	logsRequestID    string
	logsLimit        int
	logsCursor       string
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Audit trail query commands",
}

var logsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List audit trail entries",
	Run: func(cmd *cobra.Command, args []string) {
		client := NewClient(apiURL)

		q := url.Values{}
		if logsResourceType != "" {
			q.Set("resource_type", logsResourceType)
		}
		if logsResourceID != "" {
			q.Set("resource_id", logsResourceID)
		}
		if logsAction != "" {
			q.Set("action", logsAction)
		}
		if logsActorID != "" {
			q.Set("actor_id", logsActorID)
		}
		if logsRequestID != "" {
			q.Set("request_id", logsRequestID)
		}
		if logsCursor != "" {
			q.Set("cursor", logsCursor)
		}
		q.Set("limit", strconv.Itoa(logsLimit))

		var resp AuditLogListResponse
		if err := client.Get("/v1/audit-logs?"+q.Encode(), &resp); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		printResult(resp.AuditLogs)
		if resp.NextCursor != "" && output != "json" {
			fmt.Printf("\nNext cursor: %s\n", resp.NextCursor)
		}
	},
}

var logsGetCmd = &cobra.Command{
	Use:   "get <log-id>",
	Short: "Get one audit trail entry with full before/after state",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := NewClient(apiURL)

		var resp AuditLogRow
		if err := client.Get("/v1/audit-logs/"+args[0], &resp); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		printResult(resp)
	},
}

func init() {
	logsListCmd.Flags().StringVar(&logsResourceType, "resource-type", "", "Filter by resource type (role, user, permission)")
	logsListCmd.Flags().StringVar(&logsResourceID, "resource-id", "", "Filter by resource id")
	logsListCmd.Flags().StringVar(&logsAction, "action", "", "Filter by action (CREATE, UPDATE, DELETE)")
	logsListCmd.Flags().StringVar(&logsActorID, "actor", "", "Filter by actor id")
	logsListCmd.Flags().StringVar(&logsRequestID, "request", "", "Filter by request id")
	logsListCmd.Flags().IntVar(&logsLimit, "limit", 20, "Maximum entries to return")
	logsListCmd.Flags().StringVar(&logsCursor, "cursor", "", "Pagination cursor from a previous page")

	logsCmd.AddCommand(logsListCmd)
	logsCmd.AddCommand(logsGetCmd)
	rootCmd.AddCommand(logsCmd)
}
