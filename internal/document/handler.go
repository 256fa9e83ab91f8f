package document

import (
	"fmt"
	"mime"
	"strconv"

	"seva-backend/internal/httpx"
	"seva-backend/internal/scope"

	"github.com/gofiber/fiber/v2"
)

// GET /api/documents?customerId=3&branchId=1
func ListHandler(s *Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sc, err := scope.From(c)
		if err != nil {
			return err
		}
		var f Filter
		if f.CustomerID, err = httpx.QueryUint(c, "customerId"); err != nil {
			return err
		}
		if f.BranchID, err = httpx.QueryUint(c, "branchId"); err != nil {
			return err
		}
		docs, err := s.List(c.UserContext(), sc, f)
		if err != nil {
			return err
		}
		return c.JSON(docs)
	}
}

func GetHandler(s *Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sc, err := scope.From(c)
		if err != nil {
			return err
		}
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		d, err := s.Get(c.UserContext(), sc, id)
		if err != nil {
			return err
		}
		return c.JSON(d)
	}
}

// UploadHandler accepts multipart form data with a "file" part and a
// customerId field.
func UploadHandler(s *Store, maxBytes int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sc, err := scope.From(c)
		if err != nil {
			return err
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "File is required")
		}
		if maxBytes > 0 && fileHeader.Size > int64(maxBytes) {
			return fiber.NewError(fiber.StatusRequestEntityTooLarge, fmt.Sprintf("File exceeds %d bytes", maxBytes))
		}
		customerID, err := strconv.ParseUint(c.FormValue("customerId"), 10, 64)
		if err != nil || customerID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "customerId is required")
		}

		file, err := fileHeader.Open()
		if err != nil {
			return fmt.Errorf("opening upload: %w", err)
		}
		defer file.Close()

		d, err := s.Create(c.UserContext(), sc, Upload{
			CustomerID:   uint(customerID),
			OriginalName: fileHeader.Filename,
			ContentType:  fileHeader.Header.Get(fiber.HeaderContentType),
			Body:         file,
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(d)
	}
}

func DownloadHandler(s *Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sc, err := scope.From(c)
		if err != nil {
			return err
		}
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		d, r, err := s.Open(c.UserContext(), sc, id)
		if err != nil {
			return err
		}

		ct := d.ContentType
		if ct == "" {
			ct = fiber.MIMEOctetStream
		}
		c.Set(fiber.HeaderContentType, ct)
		c.Set(fiber.HeaderContentDisposition, mime.FormatMediaType("attachment", map[string]string{"filename": d.OriginalName}))
		// fiber closes r once the body is written.
		return c.SendStream(r, int(d.FileSize))
	}
}

func DeleteHandler(s *Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sc, err := scope.From(c)
		if err != nil {
			return err
		}
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		if err := s.Delete(c.UserContext(), sc, id); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"message": "Document deleted"})
	}
}
