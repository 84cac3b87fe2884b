// Package dynamotree provides an implementation of [tree.BinaryStore] that
// persists trees in an [Amazon DynamoDB] table.
//
// Each pair is one item; the tree name is the partition key and the pair's
// key is the binary sort key, so DynamoDB's sort order within one partition
// is the tree's key order.
//
// DynamoDB does not allow an empty binary sort key, so zero-length keys
// cannot be stored by this driver.
//
// [Amazon DynamoDB]: https://aws.amazon.com/dynamodb/
package dynamotree

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/dogmatiq/treekit/internal/syncx"
	"github.com/dogmatiq/treekit/tree"
)

// store is an implementation of [tree.BinaryStore] that persists to a
// DynamoDB table.
type store struct {
	Client    *dynamodb.Client
	Table     string
	OnRequest func(any) []func(*dynamodb.Options)

	createTableOnce syncx.SucceedOnce
}

// NewBinaryStore returns a new [tree.BinaryStore] that uses the given
// DynamoDB client to store trees in the given table.
//
// The table is created on first use if it does not already exist.
func NewBinaryStore(
	client *dynamodb.Client,
	table string,
	options ...Option,
) tree.BinaryStore {
	if table == "" {
		panic("table name must not be empty")
	}

	s := &store{
		Client: client,
		Table:  table,
	}

	for _, opt := range options {
		opt(s)
	}

	return s
}

// Option is a functional option that changes the behavior of
// [NewBinaryStore].
type Option func(*store)

// WithRequestHook is an [Option] that configures fn as a pre-request hook.
//
// Before each DynamoDB API request, fn is passed a pointer to the input struct,
// e.g. [dynamodb.GetItemInput], which it may modify in-place. It may be called
// with any DynamoDB request type. The types of requests used may change in any
// version without notice.
//
// Any functions returned by fn will be applied to the request's options before
// the request is sent.
func WithRequestHook(fn func(any) []func(*dynamodb.Options)) Option {
	return func(s *store) {
		s.OnRequest = fn
	}
}

// Open returns the tree with the given name, creating it if necessary.
func (s *store) Open(ctx context.Context, name string) (tree.BinaryTree, error) {
	if err := s.createTableOnce.Do(ctx, s.createTable); err != nil {
		return nil, err
	}

	h := &handle{
		Client:    s.Client,
		OnRequest: s.OnRequest,
	}

	h.attr.Tree.Value = name
	h.prepareRequests(s.Table)

	return h, nil
}
