package main

import (
	"context"
	"fmt"

	"github.com/slps/canteen/core/menu"
	"github.com/slps/canteen/core/sheet"
)

func (cli *commandLine) bootstrap() error {
	return sheet.Bootstrap(context.Background(), cli.store)
}

// seedMenu adds the default items when the menu table has no rows.
func (cli *commandLine) seedMenu() error {
	ctx := context.Background()
	t, err := sheet.Load(ctx, cli.store, sheet.Menu)
	if err != nil {
		return err
	}
	if t.Len() > 0 {
		fmt.Printf("menu already has %d items, nothing to do\n", t.Len())
		return nil
	}
	for _, item := range menu.Defaults {
		if _, err = cli.menuSvc.Add(ctx, menu.NewItem{
			Name:     item.Name,
			Price:    item.Price,
			Benefits: item.Benefits,
			Image:    item.Image,
		}); err != nil {
			return err
		}
	}
	fmt.Printf("%d items added to the menu\n", len(menu.Defaults))
	return nil
}

func (cli *commandLine) clearData() error {
	return cli.orderSvc.ClearData(context.Background())
}
