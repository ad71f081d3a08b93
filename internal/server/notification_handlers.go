package server

import (
	"github.com/gofiber/fiber/v2"
)

// ListNotifications returns the caller's notifications, newest first.
// Pass ?unread=true to filter to unread only.
func (s *Server) ListNotifications(c *fiber.Ctx) error {
	limit, offset := parsePagination(c)
	unreadOnly := c.QueryBool("unread", false)

	notifications, total, err := s.notificationService.List(
		c.UserContext(), currentUserID(c), unreadOnly, limit, offset)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"notifications": notifications,
		"count":         total,
	})
}

// MarkNotificationRead marks one notification as read.
func (s *Server) MarkNotificationRead(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.notificationService.MarkRead(c.UserContext(), currentUserID(c), id); err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Notification marked as read"})
}

// MarkAllNotificationsRead marks every unread notification as read.
func (s *Server) MarkAllNotificationsRead(c *fiber.Ctx) error {
	updated, err := s.notificationService.MarkAllRead(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "All notifications marked as read",
		"updated": updated,
	})
}

// DeleteNotification removes one notification.
func (s *Server) DeleteNotification(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.notificationService.Delete(c.UserContext(), currentUserID(c), id); err != nil {
		return respondServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ToggleNotifications flips the caller's notification opt-in and returns
// the new state.
func (s *Server) ToggleNotifications(c *fiber.Ctx) error {
	enabled, err := s.notificationService.ToggleOptIn(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"notifications_enabled": enabled})
}
