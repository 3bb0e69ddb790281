// Package domain holds users, tasks, roles and the task enums together with
// their validation rules. Nothing here touches HTTP or storage.
package domain
