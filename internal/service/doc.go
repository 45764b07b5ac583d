// Package service contains the application-specific use cases and business
// logic. It orchestrates interactions between domain objects and the task
// store (defined in internal/store) and the attachment capabilities (upload
// URL issuing and label recognition) to fulfill application features.
//
// Key components:
//
// 1. TaskService:
//   - Creates tasks with a generated identifier, the PENDING status and
//     matching creation and update timestamps
//   - Lists, reads, overwrites and deletes tasks of one owner
//
// 2. AttachmentService:
//   - Issues short-lived upload URLs for attachment objects
//   - Analyzes an uploaded attachment and stores the resulting labels on
//     the owning task
//
// 3. Error Handling:
//   - Store sentinels are translated to service sentinels
//   - Validation and attachment errors pass through unchanged
//   - Anything else is wrapped in ServiceError
//
// The service layer depends on domain entities and interfaces only, never on
// specific infrastructure implementations. Concrete stores, issuers and
// recognizers are injected by cmd/server.
package service
