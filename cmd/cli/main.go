package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

var (
	serverURL   string
	noAutoStart bool
	rootCmd     = &cobra.Command{
		Use:   "tubescribe",
		Short: "TubeScribe CLI - YouTube downloader and transcriber",
		Long:  `A command-line interface for downloading YouTube videos and transcribing media files.`,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "Server URL")
	rootCmd.PersistentFlags().BoolVar(&noAutoStart, "no-auto-start", false, "Don't auto-start server if not running")

	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(transcribeCmd)
	rootCmd.AddCommand(cancelCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(logsCmd)
}

// ensureServer checks if server is running and starts it if needed (unless --no-auto-start)
func ensureServer() {
	if noAutoStart {
		return
	}
	if err := ensureServerRunning(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
}

// startJob posts a job request and returns the accepted job ID and slot
func startJob(payload map[string]string) (jobID, slot string) {
	data, _ := json.Marshal(payload)
	resp, err := http.Post(serverURL+"/api/v1/jobs", "application/json", bytes.NewBuffer(data))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusCreated {
		fmt.Fprintf(os.Stderr, "Error: %s\n", string(body))
		os.Exit(1)
	}

	var result map[string]interface{}
	json.Unmarshal(body, &result)
	jobID, _ = result["job_id"].(string)
	slot, _ = result["slot"].(string)
	return jobID, slot
}

var downloadCmd = &cobra.Command{
	Use:   "download [url]",
	Short: "Download a YouTube video or audio",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		audioOnly, _ := cmd.Flags().GetBool("audio")
		quality, _ := cmd.Flags().GetString("quality")
		filename, _ := cmd.Flags().GetString("filename")
		follow, _ := cmd.Flags().GetBool("follow")

		kind := "download-video"
		if audioOnly {
			kind = "download-audio"
		}

		payload := map[string]string{
			"kind":   kind,
			"target": args[0],
		}
		if quality != "" {
			payload["quality"] = quality
		}
		if filename != "" {
			payload["filename"] = filename
		}

		jobID, slot := startJob(payload)
		fmt.Printf("Download started (job %s)\n", jobID)

		if follow {
			followEvents(slot, jobID)
		}
	},
}

var transcribeCmd = &cobra.Command{
	Use:   "transcribe [file]",
	Short: "Transcribe a local media file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		follow, _ := cmd.Flags().GetBool("follow")

		path := args[0]
		if abs, err := absPath(path); err == nil {
			path = abs
		}

		jobID, slot := startJob(map[string]string{
			"kind":   "transcribe",
			"target": path,
		})
		fmt.Printf("Transcription started (job %s)\n", jobID)

		if follow {
			followEvents(slot, jobID)
		}
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel [slot]",
	Short: "Cancel the running job on a slot (download or transcription)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		slot := args[0]
		resp, err := http.Post(serverURL+"/api/v1/slots/"+slot+"/cancel", "application/json", nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK {
			fmt.Fprintf(os.Stderr, "Error: %s\n", string(body))
			os.Exit(1)
		}
		fmt.Println("Cancellation requested")
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show slot status",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		resp, err := http.Get(serverURL + "/api/v1/slots")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		var slots []map[string]interface{}
		json.Unmarshal(body, &slots)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SLOT\tBUSY\tJOB\tKIND\tTARGET")
		for _, s := range slots {
			busy, _ := s["busy"].(bool)
			if busy {
				fmt.Fprintf(w, "%s\t%v\t%s\t%s\t%s\n",
					s["slot"], busy,
					truncate(str(s["job_id"]), 8),
					str(s["kind"]),
					truncate(str(s["target"]), 50))
			} else {
				fmt.Fprintf(w, "%s\t%v\t-\t-\t-\n", s["slot"], busy)
			}
		}
		w.Flush()
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past jobs",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		status, _ := cmd.Flags().GetString("status")

		u := serverURL + "/api/v1/jobs"
		if status != "" {
			u += "?status=" + status
		}

		resp, err := http.Get(u)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		var jobs []map[string]interface{}
		json.Unmarshal(body, &jobs)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tKIND\tTARGET\tSTATUS\tCREATED")
		for _, j := range jobs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				truncate(str(j["id"]), 8),
				str(j["kind"]),
				truncate(str(j["target"]), 40),
				str(j["status"]),
				str(j["created_at"]))
		}
		w.Flush()
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show job statistics",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		resp, err := http.Get(serverURL + "/api/v1/jobs/stats")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		var stats map[string]interface{}
		json.Unmarshal(body, &stats)

		fmt.Println("Job Statistics:")
		fmt.Printf("  Total:     %v\n", stats["total"])
		fmt.Printf("  Running:   %v\n", stats["running"])
		fmt.Printf("  Succeeded: %v\n", stats["succeeded"])
		fmt.Printf("  Failed:    %v\n", stats["failed"])
		fmt.Printf("  Timed out: %v\n", stats["timed_out"])
		fmt.Printf("  Cancelled: %v\n", stats["cancelled"])
	},
}

var infoCmd = &cobra.Command{
	Use:   "info [url]",
	Short: "Show video metadata",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		resp, err := http.Get(serverURL + "/api/v1/metadata?url=" + url.QueryEscape(args[0]))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK {
			fmt.Fprintf(os.Stderr, "Error: %s\n", string(body))
			os.Exit(1)
		}

		var meta map[string]interface{}
		json.Unmarshal(body, &meta)

		fmt.Printf("Title:    %s\n", str(meta["title"]))
		fmt.Printf("Uploader: %s\n", str(meta["uploader"]))
		if d, ok := meta["duration"].(float64); ok {
			fmt.Printf("Duration: %dm%02ds\n", int(d)/60, int(d)%60)
		}
		if qualities, ok := meta["qualities"].([]interface{}); ok {
			var qs []string
			for _, q := range qualities {
				qs = append(qs, str(q))
			}
			fmt.Printf("Quality:  %s\n", strings.Join(qs, ", "))
		}
	},
}

var logsCmd = &cobra.Command{
	Use:   "logs [category]",
	Short: "View server logs (job, web, error)",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		category := "job"
		if len(args) > 0 {
			category = args[0]
		}
		limit, _ := cmd.Flags().GetInt("limit")

		resp, err := http.Get(fmt.Sprintf("%s/api/v1/logs/%s?limit=%d", serverURL, category, limit))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK {
			fmt.Fprintf(os.Stderr, "Error: %s\n", string(body))
			os.Exit(1)
		}

		var result struct {
			Entries []struct {
				Timestamp string `json:"timestamp"`
				Level     string `json:"level"`
				Message   string `json:"message"`
			} `json:"entries"`
		}
		json.Unmarshal(body, &result)
		for _, e := range result.Entries {
			fmt.Printf("%s [%s] %s\n", e.Timestamp, strings.ToUpper(e.Level), e.Message)
		}
	},
}

// followEvents streams job events over WebSocket and renders progress
// until the job's result arrives.
func followEvents(slot, jobID string) {
	wsURL := strings.Replace(serverURL, "http", "ws", 1) + "/api/v1/events/" + slot
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cannot follow events: %v\n", err)
		return
	}
	defer conn.Close()

	for {
		var frame struct {
			Type    string         `json:"type"`
			JobID   string         `json:"job_id"`
			Payload map[string]any `json:"payload"`
		}
		if err := conn.ReadJSON(&frame); err != nil {
			return
		}
		if frame.JobID != jobID {
			continue
		}

		switch frame.Type {
		case "progress":
			pct, _ := frame.Payload["percent"].(float64)
			rate := str(frame.Payload["rate"])
			eta := str(frame.Payload["eta"])
			fmt.Printf("\r%5.1f%%  %s  ETA %s   ", pct, rate, eta)
		case "result":
			fmt.Println()
			if result, ok := frame.Payload["result"].(map[string]any); ok {
				status := str(result["status"])
				if status == "succeeded" {
					fmt.Printf("Done: %s\n", str(result["artifact_path"]))
				} else {
					fmt.Printf("Job %s: %s\n", status, str(result["message"]))
				}
			}
			return
		}
	}
}

func init() {
	downloadCmd.Flags().BoolP("audio", "a", false, "Download audio only (mp3)")
	downloadCmd.Flags().StringP("quality", "q", "", "Video quality (best, 1080p, 720p, 480p, 360p)")
	downloadCmd.Flags().StringP("filename", "o", "", "Output filename (without extension)")
	downloadCmd.Flags().BoolP("follow", "f", false, "Follow progress until completion")
	transcribeCmd.Flags().BoolP("follow", "f", false, "Follow progress until completion")
	historyCmd.Flags().StringP("status", "s", "", "Filter by status")
	logsCmd.Flags().IntP("limit", "n", 50, "Number of log entries")
}

func str(v interface{}) string {
	s, _ := v.(string)
	return s
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func absPath(path string) (string, error) {
	return filepath.Abs(path)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
