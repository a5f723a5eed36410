// Package dynamodb stores the run ledger in a DynamoDB table so that several
// machines writing to one S3 artifact store share a single history.
//
// Table schema:
//   - Partition key: id (string)
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name vecproof-runs \
//	  --attribute-definitions AttributeName=id,AttributeType=S \
//	  --key-schema AttributeName=id,KeyType=HASH \
//	  --billing-mode PAY_PER_REQUEST
//
// Appends use a conditional write, so an ID is recorded at most once. List
// and FindByFingerprint scan the table; the ledger holds one item per run
// and is expected to stay small.
package dynamodb
