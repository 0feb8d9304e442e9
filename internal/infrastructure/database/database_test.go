package database

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDynamoDBConfig_LocalEndpointUsesStaticCredentials(t *testing.T) {
	cfg, err := NewDynamoDBConfig(context.Background(), DynamoDBOptions{Endpoint: "http://localhost:8000"})
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", cfg.Region)

	creds, err := cfg.Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "local", creds.AccessKeyID)
}

func TestConnectDynamoDB_Endpoint(t *testing.T) {
	client, err := ConnectDynamoDB(context.Background(), DynamoDBOptions{Region: "sa-east-1", Endpoint: "http://localhost:8000"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", aws.ToString(client.Options().BaseEndpoint))
	assert.Equal(t, "sa-east-1", client.Options().Region)
}

func TestNewPostgresPool_InvalidInput(t *testing.T) {
	_, err := NewPostgresPool(context.Background(), "::not a dsn::", 1, "")
	assert.Error(t, err)

	_, err = NewPostgresPool(context.Background(), "postgres://localhost:5432/shop", 1, "soon")
	assert.Error(t, err)
}
