package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// ProductStatus defines availability states for a listing.
type ProductStatus string

const (
	ProductStatusAvailable ProductStatus = "available"
	ProductStatusRented    ProductStatus = "rented"
	ProductStatusInactive  ProductStatus = "inactive"
)

// Product is a rental listing owned by a seller. It is created together
// with its description and verification record in one transaction.
type Product struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	OwnerID   uint          `gorm:"not null;index" json:"owner_id"`
	Owner     *User         `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Status    ProductStatus `gorm:"type:varchar(20);not null;default:'available';index" json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`

	Description  *ProductDescription  `gorm:"foreignKey:ProductID" json:"description,omitempty"`
	Verification *ProductVerification `gorm:"foreignKey:ProductID" json:"verification,omitempty"`
}

// IsOwner reports whether the given user owns this product.
func (p *Product) IsOwner(userID uint) bool {
	return p.OwnerID == userID
}

// ProductDescription carries the seller-editable listing content. Changing
// title, description, or images resets the product's verification.
type ProductDescription struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	ProductID     uint           `gorm:"not null;uniqueIndex" json:"product_id"`
	Title         string         `gorm:"size:200;not null" json:"title"`
	Description   string         `gorm:"type:text;not null" json:"description"`
	ProductImages datatypes.JSON `json:"product_images"`
	Categories    datatypes.JSON `json:"categories"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// SetProductImages stores image paths as a JSON array column.
func (d *ProductDescription) SetProductImages(paths []string) error {
	raw, err := json.Marshal(paths)
	if err != nil {
		return err
	}
	d.ProductImages = datatypes.JSON(raw)
	return nil
}

// ProductImageList decodes the stored image paths.
func (d *ProductDescription) ProductImageList() []string {
	var paths []string
	if len(d.ProductImages) > 0 {
		_ = json.Unmarshal(d.ProductImages, &paths)
	}
	return paths
}

// SetCategories stores category tags as a JSON array column.
func (d *ProductDescription) SetCategories(categories []string) error {
	raw, err := json.Marshal(categories)
	if err != nil {
		return err
	}
	d.Categories = datatypes.JSON(raw)
	return nil
}

// CategoryList decodes the stored category tags.
func (d *ProductDescription) CategoryList() []string {
	var categories []string
	if len(d.Categories) > 0 {
		_ = json.Unmarshal(d.Categories, &categories)
	}
	return categories
}
