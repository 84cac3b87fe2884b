package dynamox

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/dogmatiq/treekit/driver/aws/internal/awsx"
)

// KeyAttr describes one attribute of a table's primary key.
type KeyAttr struct {
	Name    *string
	Type    types.ScalarAttributeType
	KeyType types.KeyType
}

// CreateTableIfNotExists creates a DynamoDB table with the given primary key
// attributes. It is a no-op if the table already exists.
func CreateTableIfNotExists(
	ctx context.Context,
	client *dynamodb.Client,
	table string,
	m func(any) []func(*dynamodb.Options),
	attrs ...KeyAttr,
) error {
	in := &dynamodb.CreateTableInput{
		TableName:   aws.String(table),
		BillingMode: types.BillingModePayPerRequest,
	}

	for _, a := range attrs {
		in.AttributeDefinitions = append(
			in.AttributeDefinitions,
			types.AttributeDefinition{
				AttributeName: a.Name,
				AttributeType: a.Type,
			},
		)
		in.KeySchema = append(
			in.KeySchema,
			types.KeySchemaElement{
				AttributeName: a.Name,
				KeyType:       a.KeyType,
			},
		)
	}

	if _, err := awsx.Do(ctx, client.CreateTable, m, in); err != nil {
		if !errors.As(err, new(*types.ResourceInUseException)) {
			return err
		}
	}

	return nil
}

// DeleteTableIfNotExists deletes a DynamoDB table. It is a no-op if the table
// does not exist.
func DeleteTableIfNotExists(
	ctx context.Context,
	client *dynamodb.Client,
	table string,
) error {
	if _, err := client.DeleteTable(
		ctx,
		&dynamodb.DeleteTableInput{
			TableName: aws.String(table),
		},
	); err != nil {
		if !errors.As(err, new(*types.ResourceNotFoundException)) {
			return err
		}
	}

	return nil
}
