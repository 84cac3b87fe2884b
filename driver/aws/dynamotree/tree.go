package dynamotree

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/dogmatiq/treekit/driver/aws/internal/awsx"
	"github.com/dogmatiq/treekit/driver/aws/internal/dynamox"
	"github.com/dogmatiq/treekit/tree"
)

type handle struct {
	Client    *dynamodb.Client
	OnRequest func(any) []func(*dynamodb.Options)

	attr struct {
		Tree       types.AttributeValueMemberS
		Key, Value types.AttributeValueMemberB
	}

	request struct {
		Get    dynamodb.GetItemInput
		Has    dynamodb.GetItemInput
		Query  dynamodb.QueryInput
		Count  dynamodb.QueryInput
		Put    dynamodb.PutItemInput
		Delete dynamodb.DeleteItemInput
	}
}

func (h *handle) Name() string {
	return h.attr.Tree.Value
}

func (h *handle) Get(ctx context.Context, k []byte) ([]byte, bool, error) {
	h.attr.Key.Value = k

	out, err := awsx.Do(
		ctx,
		h.Client.GetItem,
		h.OnRequest,
		&h.request.Get,
	)
	if err != nil || out.Item == nil {
		return nil, false, keyErr(k, err)
	}

	v, err := dynamox.AttrAs[*types.AttributeValueMemberB](out.Item, valueAttr)
	if err != nil {
		return nil, false, err
	}

	return v.Value, true, nil
}

func (h *handle) Insert(ctx context.Context, k, v []byte) ([]byte, bool, error) {
	h.attr.Key.Value = k
	h.attr.Value.Value = v

	out, err := awsx.Do(
		ctx,
		h.Client.PutItem,
		h.OnRequest,
		&h.request.Put,
	)
	if err != nil {
		return nil, false, keyErr(k, err)
	}

	if len(out.Attributes) == 0 {
		return nil, false, nil
	}

	prev, err := dynamox.AttrAs[*types.AttributeValueMemberB](out.Attributes, valueAttr)
	if err != nil {
		return nil, false, err
	}

	return prev.Value, true, nil
}

func (h *handle) Remove(ctx context.Context, k []byte) ([]byte, bool, error) {
	h.attr.Key.Value = k

	out, err := awsx.Do(
		ctx,
		h.Client.DeleteItem,
		h.OnRequest,
		&h.request.Delete,
	)
	if err != nil {
		return nil, false, keyErr(k, err)
	}

	if len(out.Attributes) == 0 {
		return nil, false, nil
	}

	prev, err := dynamox.AttrAs[*types.AttributeValueMemberB](out.Attributes, valueAttr)
	if err != nil {
		return nil, false, err
	}

	return prev.Value, true, nil
}

func (h *handle) Has(ctx context.Context, k []byte) (bool, error) {
	h.attr.Key.Value = k

	out, err := awsx.Do(
		ctx,
		h.Client.GetItem,
		h.OnRequest,
		&h.request.Has,
	)
	if err != nil {
		return false, keyErr(k, err)
	}

	return out.Item != nil, nil
}

func (h *handle) First(ctx context.Context) ([]byte, []byte, bool, error) {
	return h.extremum(ctx, true)
}

func (h *handle) Last(ctx context.Context) ([]byte, []byte, bool, error) {
	return h.extremum(ctx, false)
}

func (h *handle) extremum(ctx context.Context, forward bool) ([]byte, []byte, bool, error) {
	in := h.request.Query
	in.KeyConditionExpression = aws.String(`#T = :T`)
	in.ExpressionAttributeValues = map[string]types.AttributeValue{
		":T": &h.attr.Tree,
	}
	in.Limit = aws.Int32(1)
	in.ScanIndexForward = aws.Bool(forward)

	out, err := awsx.Do(
		ctx,
		h.Client.Query,
		h.OnRequest,
		&in,
	)
	if err != nil {
		return nil, nil, false, err
	}

	if len(out.Items) == 0 {
		return nil, nil, false, nil
	}

	k, v, err := pair(out.Items[0])
	if err != nil {
		return nil, nil, false, err
	}

	return k, v, true, nil
}

func (h *handle) PopMax(ctx context.Context) ([]byte, []byte, bool, error) {
	for {
		k, _, ok, err := h.Last(ctx)
		if !ok || err != nil {
			return nil, nil, false, err
		}

		// The largest pair may be removed by another process between the
		// query and the deletion, in which case the deletion is a no-op and
		// the new largest pair is popped instead.
		prev, ok, err := h.Remove(ctx, k)
		if err != nil {
			return nil, nil, false, err
		}

		if ok {
			return k, prev, true, nil
		}
	}
}

func (h *handle) Len(ctx context.Context) (uint64, error) {
	in := h.request.Count
	in.ExclusiveStartKey = nil

	var n uint64
	for {
		out, err := awsx.Do(
			ctx,
			h.Client.Query,
			h.OnRequest,
			&in,
		)
		if err != nil {
			return 0, err
		}

		n += uint64(out.Count)

		if out.LastEvaluatedKey == nil {
			return n, nil
		}

		in.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

func (h *handle) Clear(ctx context.Context) error {
	in := h.request.Query
	in.KeyConditionExpression = aws.String(`#T = :T`)
	in.ProjectionExpression = aws.String(`#K`)
	in.ExpressionAttributeNames = map[string]string{
		"#T": treeAttr,
		"#K": keyAttr,
	}
	in.ExpressionAttributeValues = map[string]types.AttributeValue{
		":T": &h.attr.Tree,
	}

	return dynamox.Range(
		ctx,
		h.Client,
		h.OnRequest,
		&in,
		func(ctx context.Context, item map[string]types.AttributeValue) (bool, error) {
			k, err := dynamox.AttrAs[*types.AttributeValueMemberB](item, keyAttr)
			if err != nil {
				return false, err
			}

			if _, _, err := h.Remove(ctx, k.Value); err != nil {
				return false, err
			}

			return true, nil
		},
	)
}

func (h *handle) Range(
	ctx context.Context,
	iv tree.Interval[[]byte],
	o tree.Order,
	fn tree.BinaryRangeFunc,
) error {
	hasBegin := !iv.Begin.IsUnbounded()
	hasEnd := !iv.End.IsUnbounded()

	if hasBegin && hasEnd && bytes.Compare(iv.Begin.Value(), iv.End.Value()) > 0 {
		return nil
	}

	in := h.request.Query
	in.ScanIndexForward = aws.Bool(o == tree.Ascending)

	cond := `#T = :T`
	values := map[string]types.AttributeValue{
		":T": &h.attr.Tree,
	}

	// A key condition supports at most one sort key comparison, so a
	// two-sided interval is widened to an inclusive BETWEEN and any
	// exclusive endpoints are filtered out below.
	switch {
	case hasBegin && hasEnd:
		cond += ` AND #K BETWEEN :lo AND :hi`
		values[":lo"] = &types.AttributeValueMemberB{Value: iv.Begin.Value()}
		values[":hi"] = &types.AttributeValueMemberB{Value: iv.End.Value()}

	case hasBegin:
		if iv.Begin.IsExclusive() {
			cond += ` AND #K > :lo`
		} else {
			cond += ` AND #K >= :lo`
		}
		values[":lo"] = &types.AttributeValueMemberB{Value: iv.Begin.Value()}

	case hasEnd:
		if iv.End.IsExclusive() {
			cond += ` AND #K < :hi`
		} else {
			cond += ` AND #K <= :hi`
		}
		values[":hi"] = &types.AttributeValueMemberB{Value: iv.End.Value()}
	}

	in.KeyConditionExpression = &cond
	in.ExpressionAttributeValues = values

	return dynamox.Range(
		ctx,
		h.Client,
		h.OnRequest,
		&in,
		func(ctx context.Context, item map[string]types.AttributeValue) (bool, error) {
			k, v, err := pair(item)
			if err != nil {
				return false, err
			}

			if iv.Begin.IsExclusive() && bytes.Equal(k, iv.Begin.Value()) {
				return true, nil
			}
			if iv.End.IsExclusive() && bytes.Equal(k, iv.End.Value()) {
				return true, nil
			}

			return fn(ctx, k, v)
		},
	)
}

func (h *handle) Close() error {
	return nil
}

// keyErr gives validation failures caused by an unsupported key a more
// descriptive message. DynamoDB does not allow empty binary sort key values.
func keyErr(k []byte, err error) error {
	if len(k) == 0 && dynamox.IsValidation(err) {
		return fmt.Errorf("empty keys are not supported: %w", err)
	}
	return err
}

// pair extracts the key and value from an item.
func pair(item map[string]types.AttributeValue) (k, v []byte, err error) {
	key, err := dynamox.AttrAs[*types.AttributeValueMemberB](item, keyAttr)
	if err != nil {
		return nil, nil, err
	}

	value, err := dynamox.AttrAs[*types.AttributeValueMemberB](item, valueAttr)
	if err != nil {
		return nil, nil, err
	}

	return key.Value, value.Value, nil
}
