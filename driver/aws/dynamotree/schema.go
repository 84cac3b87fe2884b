package dynamotree

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/dogmatiq/treekit/driver/aws/internal/dynamox"
)

var (
	// treeAttr is the name of the attribute that stores the tree name on each
	// item. Together with [keyAttr], it forms the primary key of the table.
	treeAttr = "T"

	// keyAttr is the name of the attribute that stores the key on each item.
	// Together with [treeAttr], it forms the primary key of the table.
	keyAttr = "K"

	// valueAttr is the name of the attribute that stores the value on each
	// item.
	valueAttr = "V"

	// nonExistentAttr is the name of an attribute that does not exist on any
	// item. It is used to test for the existence of an item without fetching
	// unnecessary data.
	nonExistentAttr = "X"
)

// createTable creates the DynamoDB table if it does not already exist.
func (s *store) createTable(ctx context.Context) error {
	return dynamox.CreateTableIfNotExists(
		ctx,
		s.Client,
		s.Table,
		s.OnRequest,
		dynamox.KeyAttr{
			Name:    &treeAttr,
			Type:    types.ScalarAttributeTypeS,
			KeyType: types.KeyTypeHash,
		},
		dynamox.KeyAttr{
			Name:    &keyAttr,
			Type:    types.ScalarAttributeTypeB,
			KeyType: types.KeyTypeRange,
		},
	)
}

func (h *handle) prepareRequests(table string) {
	key := map[string]types.AttributeValue{
		treeAttr: &h.attr.Tree,
		keyAttr:  &h.attr.Key,
	}

	// Get fetches the value associated with h.attr.Key.
	h.request.Get = dynamodb.GetItemInput{
		TableName:            &table,
		Key:                  key,
		ProjectionExpression: aws.String(`#V`),
		ExpressionAttributeNames: map[string]string{
			"#V": valueAttr,
		},
	}

	// Has requests [nonExistentAttr] for the item at h.attr.Key to check if
	// the item exists at all.
	h.request.Has = dynamodb.GetItemInput{
		TableName:            &table,
		Key:                  key,
		ProjectionExpression: &nonExistentAttr,
	}

	// Query fetches key/value pairs of the tree, in sort key order. The key
	// condition, direction and limit vary per operation and are set before
	// each request.
	h.request.Query = dynamodb.QueryInput{
		TableName:            &table,
		ProjectionExpression: aws.String(`#K, #V`),
		ExpressionAttributeNames: map[string]string{
			"#T": treeAttr,
			"#K": keyAttr,
			"#V": valueAttr,
		},
	}

	// Count counts the pairs of the tree.
	h.request.Count = dynamodb.QueryInput{
		TableName:              &table,
		Select:                 types.SelectCount,
		KeyConditionExpression: aws.String(`#T = :T`),
		ExpressionAttributeNames: map[string]string{
			"#T": treeAttr,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":T": &h.attr.Tree,
		},
	}

	// Put associates h.attr.Value with h.attr.Key, returning the item it
	// replaced, if any.
	h.request.Put = dynamodb.PutItemInput{
		TableName:    &table,
		ReturnValues: types.ReturnValueAllOld,
		Item: map[string]types.AttributeValue{
			treeAttr:  &h.attr.Tree,
			keyAttr:   &h.attr.Key,
			valueAttr: &h.attr.Value,
		},
	}

	// Delete removes the h.attr.Key key, returning the item it removed, if
	// any.
	h.request.Delete = dynamodb.DeleteItemInput{
		TableName:    &table,
		Key:          key,
		ReturnValues: types.ReturnValueAllOld,
	}
}
