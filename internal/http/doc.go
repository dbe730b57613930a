// Package http exposes the operating-room administration API over gorilla/mux.
//
// The router serves the following endpoints:
//   - GET /surgeries, POST /surgeries: list surgeries (filters: date, room,
//     status) and schedule a new one. Scheduling answers 409 with error code
//     SCHEDULING_CONFLICT when the room is already booked.
//   - GET /surgeries/{id}, PUT /surgeries/{id}: fetch or partially update a surgery.
//   - POST /surgeries/{id}/start, /complete, /cancel: lifecycle transitions.
//     Cancelling requires {"reason"}.
//   - GET /surgery-types, POST /surgery-types, PUT /surgery-types/{id},
//     DELETE /surgery-types/{id}: surgery type catalogue.
//   - GET, POST /patients and GET, PUT, DELETE /patients/{id}: patient registry.
//   - GET /staff (filter: role), POST /staff, PUT, DELETE /staff/{id}: staff
//     registry. Once patients or staff are registered, surgeries must
//     reference them.
//   - POST /sessions, GET /sessions: start a session and list the roster.
//   - GET /sessions/current, DELETE /sessions/current: current session with its
//     expiry warning, and forgetting the current session.
//   - POST /sessions/current/activity: refresh activity ("continue").
//   - GET /sessions/current/warnings: websocket stream of expiry warnings.
//   - DELETE /sessions/{id}: terminate a session.
//   - GET /settings/session-timeout, PUT /settings/session-timeout:
//     inactivity timeout in minutes.
//   - GET /activities, DELETE /activities: administrative activity log.
//   - GET /metrics: Prometheus exposition.
//
// The X-Actor header names whoever performs an operation so the activity log
// can attribute it. Request/response DTOs live next to their handlers.
package http
