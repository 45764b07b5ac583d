// Package dynamo implements store.TaskStore on Amazon DynamoDB.
//
// The table is keyed by taskId (partition) and userId (sort). A global
// secondary index keyed by userId (partition) and createdAt (sort) serves
// per-user listings in creation order.
package dynamo
