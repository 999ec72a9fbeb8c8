// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the Doto note store as tools for LLM integration via stdio
// transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/dotolabs/doto/internal/clock"
	"github.com/dotolabs/doto/internal/export"
	"github.com/dotolabs/doto/internal/models"
	"github.com/dotolabs/doto/internal/notestore"
	"github.com/dotolabs/doto/internal/tagstore"
)

// Server wraps the MCP server with Doto tools.
type Server struct {
	mcp   *server.MCPServer
	store *notestore.Store
	tags  *tagstore.Registry
	clk   clock.Clock
}

// New creates a new MCP server with all Doto tools registered.
func New(store *notestore.Store, tags *tagstore.Registry, clk clock.Clock) *Server {
	s := &Server{store: store, tags: tags, clk: clk}

	s.mcp = server.NewMCPServer(
		"Doto",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List all notes with their ids, dates, tags, and todos."),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read a single note rendered as Markdown."),
		mcp.WithNumber("note_id", mcp.Required(), mcp.Description("Note id")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a new note. Type is \"task\" for a todo list or \"text\" for free text."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Note name")),
		mcp.WithString("type", mcp.Required(), mcp.Description("Note type: task or text")),
		mcp.WithString("date", mcp.Description("Anchor date YYYY-MM-DD (defaults to today)")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("add_todo",
		mcp.WithDescription("Append a todo to a task note."),
		mcp.WithNumber("note_id", mcp.Required(), mcp.Description("Task note id")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Todo title")),
	), s.addTodo)

	s.mcp.AddTool(mcp.NewTool("toggle_todo",
		mcp.WithDescription("Advance a todo's status one step along incomplete -> in-progress -> completed -> incomplete."),
		mcp.WithNumber("note_id", mcp.Required(), mcp.Description("Task note id")),
		mcp.WithNumber("todo_id", mcp.Required(), mcp.Description("Todo id")),
	), s.toggleTodo)

	s.mcp.AddTool(mcp.NewTool("move_todo_to_date",
		mcp.WithDescription("Move a todo to the note anchored to the given date, creating the note when absent."),
		mcp.WithNumber("note_id", mcp.Required(), mcp.Description("Source task note id")),
		mcp.WithNumber("todo_index", mcp.Required(), mcp.Description("Index of the todo in the source note")),
		mcp.WithString("date", mcp.Required(), mcp.Description("Target date YYYY-MM-DD")),
	), s.moveTodoToDate)

	s.mcp.AddTool(mcp.NewTool("export_markdown",
		mcp.WithDescription("Export the whole collection as one Markdown document grouped by date."),
	), s.exportMarkdown)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(s.store.Notes(), "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireInt("note_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, ok := s.store.Note(int64(id))
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("note %d not found", id)), nil
	}
	return mcp.NewToolResultText(export.Note(note)), nil
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	kind, err := req.RequireString("type")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	date := req.GetString("date", "")

	var id int64
	switch models.Kind(kind) {
	case models.KindTask:
		id = s.store.AddTaskNote(name, date)
	case models.KindText:
		id = s.store.AddTextNote(name, date)
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown note type %q", kind)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created note %d", id)), nil
}

func (s *Server) addTodo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	noteID, err := req.RequireInt("note_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	todoID := s.store.AddTodo(int64(noteID), title)
	if todoID == 0 {
		return mcp.NewToolResultError(fmt.Sprintf("note %d is not a task note", noteID)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("added todo %d", todoID)), nil
}

func (s *Server) toggleTodo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	noteID, err := req.RequireInt("note_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	todoID, err := req.RequireInt("todo_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.store.ToggleTodo(int64(noteID), int64(todoID))
	return mcp.NewToolResultText("toggled"), nil
}

func (s *Server) moveTodoToDate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	noteID, err := req.RequireInt("note_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	index, err := req.RequireInt("todo_index")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	date, err := req.RequireString("date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !clock.ValidDate(date) {
		return mcp.NewToolResultError(fmt.Sprintf("invalid date %q, want YYYY-MM-DD", date)), nil
	}
	s.store.MoveTodoToDate(int64(noteID), index, date)
	return mcp.NewToolResultText("moved"), nil
}

func (s *Server) exportMarkdown(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(export.All(s.store.Notes(), s.clk.Today())), nil
}
