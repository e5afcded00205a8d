package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"golang.org/x/term"

	"github.com/wirebeam/graphcodec/msgpack"
)

func main() {
	var (
		inFile      = flag.String("in", "", "Path to encoded file (default: stdin)")
		asJSON      = flag.Bool("json", false, "Print decoded values as JSON")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *interactive {
		if *inFile == "" {
			fmt.Fprintln(os.Stderr, "Usage: inspect -in <file> -i  (interactive mode)")
			os.Exit(1)
		}
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode requires a terminal")
			os.Exit(1)
		}
		if err := runInteractive(*inFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*inFile, *asJSON); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(inFile string, asJSON bool) error {
	var src io.Reader = os.Stdin
	if inFile != "" {
		f, err := os.Open(inFile)
		if err != nil {
			return fmt.Errorf("open file: %w", err)
		}
		defer f.Close()
		src = f
	}

	nodes, err := readAll(src)
	if err != nil {
		return err
	}
	if len(nodes) == 0 {
		fmt.Fprintln(os.Stderr, "empty input")
		return nil
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		for _, node := range nodes {
			if err := enc.Encode(jsonValue(node)); err != nil {
				return fmt.Errorf("encode json: %w", err)
			}
		}
		return nil
	}

	for i, node := range nodes {
		if len(nodes) > 1 {
			fmt.Printf("--- value %d ---\n", i+1)
		}
		printTree(os.Stdout, node, 0, "")
	}
	return nil
}

// readAll decodes every top-level value until the stream ends cleanly.
func readAll(src io.Reader) ([]*msgpack.Node, error) {
	r := msgpack.NewReader(src)
	var nodes []*msgpack.Node
	for {
		node, err := r.ReadValue()
		if err == io.EOF {
			return nodes, nil
		}
		if err != nil {
			return nil, fmt.Errorf("decode value %d: %w", len(nodes)+1, err)
		}
		nodes = append(nodes, node)
	}
}

func printTree(w io.Writer, n *msgpack.Node, depth int, label string) {
	prefix := strings.Repeat("  ", depth)
	if label != "" {
		prefix += label + ": "
	}
	fmt.Fprintf(w, "%s%s\n", prefix, n.Summary())
	switch n.Type {
	case msgpack.ArrayNode:
		for i, item := range n.Items {
			printTree(w, item, depth+1, fmt.Sprintf("[%d]", i))
		}
	case msgpack.MapNode:
		for _, e := range n.Entries {
			printTree(w, e.Value, depth+1, keyString(e.Key))
		}
	}
}

// jsonValue converts a node tree into something the JSON encoder accepts:
// map keys become strings regardless of their wire type.
func jsonValue(n *msgpack.Node) any {
	switch n.Type {
	case msgpack.ArrayNode:
		out := make([]any, len(n.Items))
		for i, item := range n.Items {
			out[i] = jsonValue(item)
		}
		return out
	case msgpack.MapNode:
		out := make(map[string]any, len(n.Entries))
		for _, e := range n.Entries {
			out[keyString(e.Key)] = jsonValue(e.Value)
		}
		return out
	case msgpack.BinaryNode:
		return fmt.Sprintf("%x", n.Bin)
	default:
		return n.Interface()
	}
}

func keyString(n *msgpack.Node) string {
	if n.Type == msgpack.StringNode {
		return n.Str
	}
	return n.Summary()
}
