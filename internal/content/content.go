// Package content fetches the full block tree of a page for rendering.
package content

import (
	"context"
	"errors"
	"fmt"

	"github.com/ppiankov/notionblog/internal/logging"
	"github.com/ppiankov/notionblog/internal/notion"
	"github.com/ppiankov/notionblog/internal/notionid"
	"github.com/ppiankov/notionblog/internal/retry"
)

// DefaultMaxDepth bounds how deep nested blocks are followed.
const DefaultMaxDepth = 8

// Tree is the content of one page, handed whole to the renderer.
type Tree struct {
	PageID string `json:"page_id"`
	Blocks []Node `json:"blocks"`
}

// Node is one raw block and its nested children.
type Node struct {
	Block    notion.Object `json:"block"`
	Children []Node        `json:"children,omitempty"`
}

// BlockLister lists one page of a block's children.
type BlockLister interface {
	BlockChildren(ctx context.Context, blockID, cursor string, pageSize int) (*notion.ListResponse, error)
}

// Fetcher retrieves block trees. Unlike the post repository it returns errors:
// there is nothing sensible to show in place of a missing article body.
type Fetcher struct {
	api      BlockLister
	policy   retry.Policy
	maxDepth int
	log      logging.Logger
}

// NewFetcher creates a fetcher. A maxDepth below 1 uses DefaultMaxDepth.
func NewFetcher(api BlockLister, policy retry.Policy, maxDepth int, log logging.Logger) *Fetcher {
	if maxDepth < 1 {
		maxDepth = DefaultMaxDepth
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Fetcher{api: api, policy: policy, maxDepth: maxDepth, log: log}
}

// Fetch returns the block tree of the page with id documentID.
func (f *Fetcher) Fetch(ctx context.Context, documentID string) (*Tree, error) {
	if f.api == nil {
		return nil, errors.New("content: notion client is not configured")
	}
	id := notionid.Canonical(documentID)

	blocks, err := f.children(ctx, id, 1)
	if err != nil {
		return nil, fmt.Errorf("fetch content %s: %w", id, err)
	}
	return &Tree{PageID: id, Blocks: blocks}, nil
}

func (f *Fetcher) children(ctx context.Context, blockID string, depth int) ([]Node, error) {
	nodes := []Node{}
	cursor := ""
	for {
		resp, err := retry.Do(ctx, f.log, "notion page content", f.policy,
			func(ctx context.Context) (*notion.ListResponse, error) {
				return f.api.BlockChildren(ctx, blockID, cursor, notion.MaxPageSize)
			})
		if err != nil {
			return nil, err
		}

		for _, b := range resp.Results {
			node := Node{Block: b}
			if notion.BoolOr(b, false, "has_children") && b.ID() != "" {
				if depth >= f.maxDepth {
					f.log.Debugf("not descending into %s: depth limit %d reached", b.ID(), f.maxDepth)
				} else {
					kids, err := f.children(ctx, b.ID(), depth+1)
					if err != nil {
						return nil, err
					}
					node.Children = kids
				}
			}
			nodes = append(nodes, node)
		}

		if !resp.HasMore || resp.NextCursor == "" {
			return nodes, nil
		}
		cursor = resp.NextCursor
	}
}

// IsNotFound reports whether err means the page does not exist or is not shared
// with the integration.
func IsNotFound(err error) bool {
	return notion.IsNotFound(err)
}
