package main

import (
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"sort"
	"strings"

	"github.com/chzyer/readline"
	ws "github.com/gorilla/websocket"
	"github.com/olekukonko/tablewriter"
)

type ServerResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
	ReqId   int    `json:"__poorly_req_id__"`
}

type Client struct {
	conn   *ws.Conn
	req_id int
}

func NewClient(server, username, password string) (*Client, error) {
	u, err := url.Parse(server)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Add("username", username)
	q.Add("password", password)
	u.RawQuery = q.Encode()

	conn, _, err := ws.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn}, nil
}

func (c *Client) Send(cmd *Command) (ServerResponse, error) {
	c.req_id++
	payload := map[string]any{"action": cmd.Action, "__poorly_req_id__": c.req_id}
	for k, v := range cmd.Payload {
		payload[k] = v
	}
	if err := c.conn.WriteJSON(payload); err != nil {
		return ServerResponse{}, err
	}

	var res ServerResponse
	if err := c.conn.ReadJSON(&res); err != nil {
		return res, err
	}
	return res, nil
}

func (c *Client) Close() {
	c.conn.WriteMessage(ws.CloseMessage, ws.FormatCloseMessage(ws.CloseNormalClosure, "bye"))
	c.conn.Close()
}

func renderRows(rows []map[string]any) {
	if len(rows) == 0 {
		fmt.Println("(no results)")
		return
	}

	header_set := map[string]bool{}
	for _, row := range rows {
		for k := range row {
			header_set[k] = true
		}
	}
	header := make([]string, 0, len(header_set))
	for k := range header_set {
		header = append(header, k)
	}
	sort.Strings(header)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(false)

	for _, row := range rows {
		cells := make([]string, 0, len(header))
		for _, k := range header {
			cells = append(cells, fmt.Sprintf("%v", row[k]))
		}
		table.Append(cells)
	}
	table.Render()

	if len(rows) == 1 {
		fmt.Println("(1 result)")
	} else {
		fmt.Printf("(%d results)\n", len(rows))
	}
}

func renderResponse(res ServerResponse) {
	if res.Status >= 400 {
		fmt.Printf("Error (%d): %s\n", res.Status, res.Message)
		return
	}

	switch data := res.Data.(type) {
	case []any:
		rows := make([]map[string]any, 0, len(data))
		for _, item := range data {
			if row, ok := item.(map[string]any); ok {
				rows = append(rows, row)
			}
		}
		renderRows(rows)
	case map[string]any:
		renderRows([]map[string]any{data})
	}
	fmt.Println(res.Message)
}

var completer = readline.NewPrefixCompleter(
	readline.PcItem("Select"),
	readline.PcItem("Insert"),
	readline.PcItem("Update"),
	readline.PcItem("Delete"),
	readline.PcItem("Create"),
	readline.PcItem("Drop"),
	readline.PcItem("Alter"),
	readline.PcItem("CreateDb"),
	readline.PcItem("DropDb"),
	readline.PcItem("ShowTables"),
	readline.PcItem("Join"),
	readline.PcItem("exit"),
)

func main() {
	server := flag.String("url", "ws://localhost:7085", "server url")
	username := flag.String("username", "", "user name")
	password := flag.String("password", "", "user password")

	flag.Parse()

	client, err := NewClient(*server, *username, *password)
	if err != nil {
		fmt.Println("Failed to connect:", err)
		os.Exit(1)
	}
	defer client.Close()

	l, err := readline.NewEx(&readline.Config{
		Prompt:          "poorly> ",
		HistoryFile:     "/tmp/poorly_cli_history",
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		panic(err)
	}
	defer l.Close()

	fmt.Println("Connected to", *server)
repl:
	for {
		line, err := l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				break
			}
			continue repl
		} else if err == io.EOF {
			break
		}
		if err != nil {
			fmt.Println("Error while reading line:", err)
			continue repl
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue repl
		}
		if trimmed == "quit" || trimmed == "exit" || trimmed == "\\q" {
			break
		}

		cmd, err := ParseCommand(trimmed)
		if err != nil {
			fmt.Println("Error while parsing:", err)
			continue repl
		}

		res, err := client.Send(cmd)
		if err != nil {
			fmt.Println("Request failed:", err)
			break
		}
		renderResponse(res)
	}
}
