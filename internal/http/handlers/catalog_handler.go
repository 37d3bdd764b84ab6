package handlers

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"oakline/internal/domain"
	applog "oakline/internal/log"
	"oakline/internal/repos"
	"oakline/internal/validate"
)

// CatalogHandler is the thin pass-through CRUD surface for categories,
// taxes, zones, vendors, materials and products. None of it touches the
// order engine.
type CatalogHandler struct {
	Categories *repos.CategoryRepo
	Taxes      *repos.TaxRepo
	Zones      *repos.ZoneRepo
	Vendors    *repos.VendorRepo
	Catalog    *repos.CatalogRepo
}

func (h *CatalogHandler) ListCategories(c *fiber.Ctx) error {
	out, err := h.Categories.List()
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"categories": out})
}

func (h *CatalogHandler) CreateCategory(c *fiber.Ctx) error {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "body", "malformed JSON")
	}
	name, ok := validate.Name(req.Name)
	if !ok {
		return badRequest(c, "name", "must be 1-60 characters")
	}
	cat := domain.Category{ID: uuid.NewString(), Name: name}
	if err := h.Categories.Create(cat); err != nil {
		return writeError(c, err)
	}
	applog.Audit(c, "category.create", map[string]any{"name": name})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": cat.ID, "name": cat.Name})
}

func (h *CatalogHandler) ListTaxes(c *fiber.Ctx) error {
	out, err := h.Taxes.List()
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"taxes": out})
}

func (h *CatalogHandler) CreateTax(c *fiber.Ctx) error {
	var req struct {
		Name       string          `json:"name"`
		Rate       decimal.Decimal `json:"rate"`
		TaxType    string          `json:"taxType"`
		Categories string          `json:"applicableCategories"`
		IsActive   *bool           `json:"isActive"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "body", "malformed JSON")
	}
	if req.TaxType != "category" && req.TaxType != "full_bill" {
		return badRequest(c, "taxType", "must be category or full_bill")
	}
	name, ok := validate.Name(req.Name)
	if !ok {
		return badRequest(c, "name", "must be 1-60 characters")
	}
	tax := domain.Tax{
		ID:         uuid.NewString(),
		Name:       name,
		Rate:       req.Rate,
		TaxType:    req.TaxType,
		Categories: req.Categories,
		IsActive:   req.IsActive == nil || *req.IsActive,
	}
	if err := h.Taxes.Create(tax); err != nil {
		return writeError(c, err)
	}
	applog.Audit(c, "tax.create", map[string]any{"name": name, "type": tax.TaxType})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": tax.ID})
}

func (h *CatalogHandler) ListZones(c *fiber.Ctx) error {
	out, err := h.Zones.List()
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"zones": out})
}

func (h *CatalogHandler) CreateZone(c *fiber.Ctx) error {
	var req struct {
		Name           string          `json:"name"`
		DeliveryCharge decimal.Decimal `json:"deliveryCharge"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "body", "malformed JSON")
	}
	name, ok := validate.Name(req.Name)
	if !ok {
		return badRequest(c, "name", "must be 1-60 characters")
	}
	z := domain.Zone{ID: uuid.NewString(), Name: name, DeliveryCharge: req.DeliveryCharge}
	if err := h.Zones.Create(z); err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": z.ID})
}

func (h *CatalogHandler) ListVendors(c *fiber.Ctx) error {
	out, err := h.Vendors.List()
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"vendors": out})
}

func (h *CatalogHandler) CreateVendor(c *fiber.Ctx) error {
	var req struct {
		Name    string `json:"name"`
		Phone   string `json:"phone"`
		Address string `json:"address"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "body", "malformed JSON")
	}
	name, ok := validate.Name(req.Name)
	if !ok {
		return badRequest(c, "name", "must be 1-60 characters")
	}
	if _, ok := validate.Phone(req.Phone); !ok {
		return badRequest(c, "phone", "invalid phone number")
	}
	v := domain.Vendor{ID: uuid.NewString(), Name: name, Phone: req.Phone, Address: req.Address}
	if err := h.Vendors.Create(v); err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": v.ID})
}

func (h *CatalogHandler) ListMaterials(c *fiber.Ctx) error {
	out, err := h.Catalog.ListMaterials()
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"materials": out})
}

func (h *CatalogHandler) CreateMaterial(c *fiber.Ctx) error {
	var req struct {
		Name      string          `json:"name"`
		Unit      string          `json:"unit"`
		UnitPrice decimal.Decimal `json:"unitPrice"`
		Stock     int             `json:"stock"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "body", "malformed JSON")
	}
	name, ok := validate.Name(req.Name)
	if !ok {
		return badRequest(c, "name", "must be 1-60 characters")
	}
	if req.Stock < 0 {
		return badRequest(c, "stock", "must not be negative")
	}
	m := domain.Material{ID: uuid.NewString(), Name: name, Unit: req.Unit, UnitPrice: req.UnitPrice, Stock: req.Stock}
	if m.Unit == "" {
		m.Unit = "piece"
	}
	if err := h.Catalog.CreateMaterial(m); err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": m.ID})
}

func (h *CatalogHandler) ListProducts(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	size := c.QueryInt("pageSize", 20)
	if size <= 0 || size > 100 {
		size = 20
	}
	out, err := h.Catalog.ListProducts(c.Query("category"), size, (page-1)*size)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"products": out})
}

// GetProduct returns one product with its full variant tree and addon rules.
func (h *CatalogHandler) GetProduct(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "id", "invalid identifier")
	}
	p, err := h.Catalog.Product(h.Catalog.DB(), id)
	if err != nil {
		if err == sql.ErrNoRows {
			return writeError(c, &domain.NotFoundError{Kind: "product", ID: id})
		}
		return writeError(c, err)
	}
	addons, err := h.Catalog.Addons(h.Catalog.DB(), id)
	if err != nil {
		return writeError(c, err)
	}

	type colorView struct {
		domain.ProductColor
		Sizes []domain.ColorSize `json:"sizes"`
	}
	colors, err := h.Catalog.Colors(id)
	if err != nil {
		return writeError(c, err)
	}
	views := make([]colorView, 0, len(colors))
	for _, col := range colors {
		sizes, err := h.Catalog.Sizes(col.ID)
		if err != nil {
			return writeError(c, err)
		}
		views = append(views, colorView{ProductColor: col, Sizes: sizes})
	}

	return c.JSON(fiber.Map{"product": p, "colors": views, "addons": addons})
}

type productCreateReq struct {
	CategoryID  string          `json:"categoryId"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Unit        string          `json:"unit"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Stock       int             `json:"stock"`
	Colors      []struct {
		Name  string `json:"name"`
		Sizes []struct {
			Name   string `json:"name"`
			Stock  int    `json:"stock"`
			Width  string `json:"width"`
			Height string `json:"height"`
			Depth  string `json:"depth"`
		} `json:"sizes"`
	} `json:"colors"`
	Addons []struct {
		MaterialID string          `json:"materialId"`
		QtyPerUnit int             `json:"qtyPerUnit"`
		SalePrice  decimal.Decimal `json:"salePrice"`
	} `json:"addons"`
}

func (h *CatalogHandler) CreateProduct(c *fiber.Ctx) error {
	var req productCreateReq
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "body", "malformed JSON")
	}
	name, ok := validate.Name(req.Name)
	if !ok {
		return badRequest(c, "name", "must be 1-60 characters")
	}
	categoryID, ok := validate.ID(req.CategoryID)
	if !ok {
		return badRequest(c, "categoryId", "invalid identifier")
	}

	p := domain.Product{
		ID:          uuid.NewString(),
		CategoryID:  categoryID,
		Name:        name,
		Description: req.Description,
		Unit:        req.Unit,
		UnitPrice:   req.UnitPrice,
		Stock:       req.Stock,
		HasVariants: len(req.Colors) > 0,
	}
	if p.Unit == "" {
		p.Unit = "piece"
	}
	if p.HasVariants {
		// denormalized total is always the sum over variant sizes
		p.Stock = 0
		for _, col := range req.Colors {
			for _, s := range col.Sizes {
				p.Stock += s.Stock
			}
		}
	}
	if err := h.Catalog.CreateProduct(p); err != nil {
		return writeError(c, err)
	}

	for _, col := range req.Colors {
		color := domain.ProductColor{ID: uuid.NewString(), ProductID: p.ID, Name: col.Name}
		if err := h.Catalog.CreateColor(color); err != nil {
			return writeError(c, err)
		}
		for _, s := range col.Sizes {
			cs := domain.ColorSize{ColorID: color.ID, Name: s.Name, Stock: s.Stock,
				Width: s.Width, Height: s.Height, Depth: s.Depth}
			if err := h.Catalog.CreateSize(cs); err != nil {
				return writeError(c, err)
			}
		}
	}
	for _, a := range req.Addons {
		addon := domain.Addon{MaterialID: a.MaterialID, QtyPerUnit: a.QtyPerUnit, SalePrice: a.SalePrice}
		if err := h.Catalog.AttachAddon(p.ID, addon); err != nil {
			return writeError(c, err)
		}
	}

	applog.Audit(c, "product.create", map[string]any{"product_id": p.ID, "name": name})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": p.ID})
}
