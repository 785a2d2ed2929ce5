package rules

import (
	"fmt"
	"time"

	"terrainhub/models"
)

// Category selects the avatar or banner shelf of the shop.
type Category string

const (
	CategoryAvatar Category = "avatar"
	CategoryBanner Category = "banner"
)

// ShopItem is a purchasable cosmetic.
type ShopItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl"`
	Cost     int    `json:"cost"`
}

var avatarShop = []ShopItem{
	{ID: models.DefaultItemID, Name: "Avatar par défaut", ImageURL: "/default-avatar.jpg", Cost: 0},
	{ID: "petanque_ball", Name: "Boule de Pétanque", ImageURL: "/avatars/avatar-2.jpg", Cost: 50},
	{ID: "champion", Name: "Champion", ImageURL: "/avatars/champion.jpg", Cost: 100},
	{ID: "golden_player", Name: "Joueur Doré", ImageURL: "/avatars/golden-player.jpg", Cost: 200},
	{ID: "legend", Name: "Légende", ImageURL: "/avatars/legend.jpg", Cost: 500},
}

var bannerShop = []ShopItem{
	{ID: models.DefaultItemID, Name: "Bannière par défaut", ImageURL: "/banners/default.png", Cost: 0},
	{ID: "sunset", Name: "Coucher de Soleil", ImageURL: "/banners/sunset.png", Cost: 75},
	{ID: "mountains", Name: "Montagnes", ImageURL: "/banners/mountains.png", Cost: 150},
	{ID: "ocean", Name: "Océan", ImageURL: "/banners/ocean.png", Cost: 300},
	{ID: "golden", Name: "Doré", ImageURL: "/banners/golden.png", Cost: 750},
}

// ParseCategory validates a category coming from a request.
func ParseCategory(s string) (Category, error) {
	switch Category(s) {
	case CategoryAvatar, CategoryBanner:
		return Category(s), nil
	}
	return "", fmt.Errorf("%w: invalid type %q", ErrValidation, s)
}

// Shelf returns the catalog of a category.
func Shelf(c Category) []ShopItem {
	if c == CategoryBanner {
		return append([]ShopItem(nil), bannerShop...)
	}
	return append([]ShopItem(nil), avatarShop...)
}

// FindItem looks up an item in a category.
func FindItem(c Category, itemID string) (ShopItem, error) {
	for _, it := range Shelf(c) {
		if it.ID == itemID {
			return it, nil
		}
	}
	return ShopItem{}, fmt.Errorf("%w: %s %q", ErrNotFound, c, itemID)
}

// UnlockedField returns the user document field holding the category's unlocked list.
func (c Category) UnlockedField() string {
	if c == CategoryBanner {
		return "unlockedBanners"
	}
	return "unlockedAvatars"
}

// CurrentField returns the user document field holding the equipped item.
func (c Category) CurrentField() string {
	if c == CategoryBanner {
		return "currentBanner"
	}
	return "currentAvatar"
}

func unlockedList(user *models.User, c Category) *[]models.UnlockedItem {
	if c == CategoryBanner {
		return &user.UnlockedBanners
	}
	return &user.UnlockedAvatars
}

func setCurrent(user *models.User, c Category, itemID string) {
	if c == CategoryBanner {
		user.CurrentBanner = itemID
	} else {
		user.CurrentAvatar = itemID
	}
}

// IsUnlocked reports whether the user may equip itemID without paying.
func IsUnlocked(user models.User, c Category, itemID string) bool {
	if itemID == models.DefaultItemID {
		return true
	}
	for _, it := range *unlockedList(&user, c) {
		if it.ID == itemID {
			return true
		}
	}
	return false
}

// EquipResult describes the outcome of PurchaseOrEquip.
type EquipResult struct {
	Category    Category             `json:"type"`
	Item        ShopItem             `json:"item"`
	Purchased   bool                 `json:"purchased"`
	PointsSpent int                  `json:"pointsSpent,omitempty"`
	NewPoints   int                  `json:"newPoints"`
	Unlocked    *models.UnlockedItem `json:"-"`
}

// PurchaseOrEquip equips itemID, buying it first when it is still locked.
// Either the debit, unlock and equip all happen or none of them do.
func PurchaseOrEquip(user *models.User, c Category, itemID string, perLevel int, now time.Time) (EquipResult, error) {
	item, err := FindItem(c, itemID)
	if err != nil {
		return EquipResult{}, err
	}
	res := EquipResult{Category: c, Item: item}

	if IsUnlocked(*user, c, itemID) {
		setCurrent(user, c, itemID)
		res.NewPoints = user.Points
		return res, nil
	}

	if _, err := SpendPoints(user, item.Cost, perLevel); err != nil {
		return EquipResult{}, fmt.Errorf("%w: %q costs %d", err, item.Name, item.Cost)
	}
	unlocked := models.UnlockedItem{
		ID:         item.ID,
		Name:       item.Name,
		ImageURL:   item.ImageURL,
		Cost:       item.Cost,
		UnlockedAt: now,
	}
	list := unlockedList(user, c)
	*list = append(*list, unlocked)
	setCurrent(user, c, itemID)

	res.Purchased = true
	res.PointsSpent = item.Cost
	res.NewPoints = user.Points
	res.Unlocked = &unlocked
	return res, nil
}

// ShelfEntry is a shop item annotated for one user.
type ShelfEntry struct {
	ShopItem
	Unlocked  bool `json:"unlocked"`
	CanAfford bool `json:"canAfford"`
	IsCurrent bool `json:"isCurrent"`
}

// Storefront is the customization view of one user.
type Storefront struct {
	Avatars       []ShelfEntry `json:"avatars"`
	Banners       []ShelfEntry `json:"banners"`
	CurrentAvatar string       `json:"currentAvatar"`
	CurrentBanner string       `json:"currentBanner"`
	Points        int          `json:"points"`
}

// ShopView annotates both shelves for the user.
func ShopView(user models.User) Storefront {
	avatar := orDefault(user.CurrentAvatar)
	banner := orDefault(user.CurrentBanner)
	return Storefront{
		Avatars:       annotate(user, CategoryAvatar, avatar),
		Banners:       annotate(user, CategoryBanner, banner),
		CurrentAvatar: avatar,
		CurrentBanner: banner,
		Points:        user.Points,
	}
}

func annotate(user models.User, c Category, current string) []ShelfEntry {
	shelf := Shelf(c)
	out := make([]ShelfEntry, 0, len(shelf))
	for _, it := range shelf {
		out = append(out, ShelfEntry{
			ShopItem:  it,
			Unlocked:  IsUnlocked(user, c, it.ID),
			CanAfford: user.Points >= it.Cost,
			IsCurrent: current == it.ID,
		})
	}
	return out
}

// AvatarImage resolves the image shown next to the user's content: the
// equipped shop avatar, else the profile picture, else the default avatar.
func AvatarImage(user models.User) string {
	if id := orDefault(user.CurrentAvatar); id != models.DefaultItemID {
		if item, err := FindItem(CategoryAvatar, id); err == nil {
			return item.ImageURL
		}
		return avatarShop[0].ImageURL
	}
	if user.Image != "" {
		return user.Image
	}
	return avatarShop[0].ImageURL
}

func orDefault(id string) string {
	if id == "" {
		return models.DefaultItemID
	}
	return id
}
